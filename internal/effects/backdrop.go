package effects

// Backgrounds maps a context to an image URL. ContextDefault is the
// fallback for any missing entry.
type Backgrounds map[Context]string

// Backdrop resolves the active background: override if set, else the
// scene context image, else the default. A directive is emitted only when
// the resolved URL changes.
type Backdrop struct {
	images   Backgrounds
	context  Context
	override string
	current  string
	emit     Sink
}

func NewBackdrop(images Backgrounds, emit Sink) *Backdrop {
	if emit == nil {
		emit = func(Directive) {}
	}
	b := &Backdrop{images: images, context: ContextPassword, emit: emit}
	b.current = b.URL()
	return b
}

func (b *Backdrop) SetScene(ctx Context) {
	b.context = ctx
	// Only the question scene keeps a per-item override across the swap.
	if ctx != ContextQuestion {
		b.override = ""
	}
	b.publish()
}

func (b *Backdrop) SetOverride(url string) {
	b.override = url
	b.publish()
}

func (b *Backdrop) URL() string {
	return b.Resolve(b.context, b.override)
}

// Resolve computes the URL for ctx and override without changing state.
func (b *Backdrop) Resolve(ctx Context, override string) string {
	if override != "" {
		return override
	}
	if url := b.images[ctx]; url != "" {
		return url
	}
	return b.images[ContextDefault]
}

func (b *Backdrop) publish() {
	url := b.URL()
	if url == b.current {
		return
	}
	b.current = url
	b.emit(Directive{Kind: KindBackground, Action: "set", URL: url})
}
