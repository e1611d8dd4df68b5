package effects

type MusicSettings struct {
	Enabled bool
	Src     string
	Volume  float64
	Loop    bool
}

type MusicState struct {
	Enabled bool `json:"enabled"`
	Playing bool `json:"playing"`
	// Blocked means the client refused autoplay; it should show a
	// tap-to-play control.
	Blocked bool `json:"blocked"`
}

// Player tracks ambient music and requests play/pause on transitions of
// its own state only.
type Player struct {
	settings MusicSettings
	playing  bool
	blocked  bool
	emit     Sink
}

func NewPlayer(settings MusicSettings, emit Sink) *Player {
	if emit == nil {
		emit = func(Directive) {}
	}
	return &Player{settings: settings, emit: emit}
}

func (p *Player) enabled() bool {
	return p.settings.Enabled && p.settings.Src != ""
}

func (p *Player) Play() {
	if !p.enabled() || p.playing {
		return
	}
	p.playing = true
	p.blocked = false
	p.emit(Directive{
		Kind:   KindMusic,
		Action: "play",
		URL:    p.settings.Src,
		Volume: p.settings.Volume,
		Loop:   p.settings.Loop,
	})
}

func (p *Player) Pause() {
	if !p.playing {
		return
	}
	p.playing = false
	p.emit(Directive{Kind: KindMusic, Action: "pause"})
}

func (p *Player) Toggle() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// Blocked records that the client's runtime rejected playback.
func (p *Player) Blocked() {
	if !p.enabled() {
		return
	}
	p.playing = false
	p.blocked = true
}

func (p *Player) State() MusicState {
	return MusicState{Enabled: p.enabled(), Playing: p.playing, Blocked: p.blocked}
}

type CueSettings struct {
	Enabled bool
	Volume  float64
	Sounds  map[Cue]string
}

// CueBoard plays short effect sounds by name. Missing sounds are ignored.
type CueBoard struct {
	settings CueSettings
	emit     Sink
}

func NewCueBoard(settings CueSettings, emit Sink) *CueBoard {
	if emit == nil {
		emit = func(Directive) {}
	}
	return &CueBoard{settings: settings, emit: emit}
}

func (b *CueBoard) Play(cue Cue) {
	if !b.settings.Enabled {
		return
	}
	url := b.settings.Sounds[cue]
	if url == "" {
		return
	}
	b.emit(Directive{Kind: KindCue, Name: string(cue), URL: url, Volume: b.settings.Volume})
}
