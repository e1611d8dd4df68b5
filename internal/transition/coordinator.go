// Package transition sequences the full-screen cover animation around a
// scene swap: wait for assets, show the cover, apply the state change
// partway through, clear the cover.
package transition

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

type Timing struct {
	Total          time.Duration
	SwapFraction   float64
	ClearBuffer    time.Duration
	PreloadTimeout time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Total:          2400 * time.Millisecond,
		SwapFraction:   0.4,
		ClearBuffer:    150 * time.Millisecond,
		PreloadTimeout: 3 * time.Second,
	}
}

// SwapDelay is when, after the cover appears, the mutation is applied.
func (t Timing) SwapDelay() time.Duration {
	return time.Duration(math.Round(float64(t.Total) * t.SwapFraction))
}

// ClearDelay is when, after the cover appears, it is removed.
func (t Timing) ClearDelay() time.Duration {
	return t.Total + t.ClearBuffer
}

// Preloader completes when every url is loaded or timeout elapses. It
// never fails.
type Preloader interface {
	Preload(ctx context.Context, urls []string, timeout time.Duration)
}

// Token is one in-flight transition.
type Token struct {
	ID      uint64
	Started time.Time
	SwapAt  time.Time
	ClearAt time.Time

	apply     func()
	timers    []Timer
	swapped   bool
	cleared   bool
	cancelled bool
}

type Hooks struct {
	CoverShown   func(Token)
	Swapped      func(Token)
	CoverCleared func(Token)
}

type Options struct {
	Clock     Clock
	Timing    Timing
	Preloader Preloader
	// Post runs f on the goroutine that owns the guarded state. Timer and
	// preload completions always go through it.
	Post             func(f func())
	Hooks            Hooks
	CancelSuperseded bool
	Logger           *zap.Logger
}

// Coordinator is not safe for concurrent use; every method must be called
// from the goroutine Post delivers to.
type Coordinator struct {
	clock     Clock
	timing    Timing
	preloader Preloader
	post      func(func())
	hooks     Hooks
	cancel    bool
	logger    *zap.Logger

	seq     uint64
	current *Token // single slot, overwritten by each new transition
	covers  int
}

func New(opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Post == nil {
		opts.Post = func(f func()) { f() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Coordinator{
		clock:     opts.Clock,
		timing:    opts.Timing,
		preloader: opts.Preloader,
		post:      opts.Post,
		hooks:     opts.Hooks,
		cancel:    opts.CancelSuperseded,
		logger:    opts.Logger,
	}
}

func (c *Coordinator) Timing() Timing { return c.timing }

// Begin starts a transition that will run mutate exactly once at the swap
// point. When assets is non-empty the cover waits for them first.
func (c *Coordinator) Begin(ctx context.Context, assets []string, mutate func()) uint64 {
	c.seq++
	id := c.seq

	if len(assets) == 0 || c.preloader == nil {
		c.cover(id, mutate)
		return id
	}

	go func() {
		c.preloader.Preload(ctx, assets, c.timing.PreloadTimeout)
		c.post(func() {
			if c.cancel && id != c.seq {
				c.logger.Debug("transition superseded while preloading", zap.Uint64("transition", id))
				return
			}
			c.cover(id, mutate)
		})
	}()
	return id
}

// Warm requests assets ahead of time so a later Begin finds them cached.
func (c *Coordinator) Warm(ctx context.Context, urls []string) {
	if c.preloader == nil || len(urls) == 0 {
		return
	}
	go c.preloader.Preload(ctx, urls, c.timing.PreloadTimeout)
}

// Current returns the most recently scheduled transition.
func (c *Coordinator) Current() (Token, bool) {
	if c.current == nil {
		return Token{}, false
	}
	return *c.current, true
}

// Covered reports whether any cover is still showing.
func (c *Coordinator) Covered() bool { return c.covers > 0 }

func (c *Coordinator) cover(id uint64, mutate func()) {
	now := c.clock.Now()
	tok := &Token{
		ID:      id,
		Started: now,
		SwapAt:  now.Add(c.timing.SwapDelay()),
		ClearAt: now.Add(c.timing.ClearDelay()),
		apply:   mutate,
	}

	if prev := c.current; prev != nil && c.cancel {
		c.abandon(prev)
	}
	c.current = tok
	c.covers++

	c.logger.Debug("transition cover shown",
		zap.Uint64("transition", id),
		zap.Duration("swap_in", c.timing.SwapDelay()),
		zap.Duration("clear_in", c.timing.ClearDelay()),
	)
	if c.hooks.CoverShown != nil {
		c.hooks.CoverShown(*tok)
	}

	tok.timers = []Timer{
		c.clock.AfterFunc(c.timing.SwapDelay(), func() { c.post(func() { c.swap(tok) }) }),
		c.clock.AfterFunc(c.timing.ClearDelay(), func() { c.post(func() { c.clear(tok) }) }),
	}
}

func (c *Coordinator) swap(tok *Token) {
	if tok.swapped || tok.cancelled {
		return
	}
	tok.swapped = true
	tok.apply()
	if c.hooks.Swapped != nil {
		c.hooks.Swapped(*tok)
	}
}

func (c *Coordinator) clear(tok *Token) {
	if tok.cleared || tok.cancelled {
		return
	}
	tok.cleared = true
	c.covers--
	if c.current == tok {
		c.current = nil
	}
	c.logger.Debug("transition cover cleared", zap.Uint64("transition", tok.ID))
	if c.hooks.CoverCleared != nil {
		c.hooks.CoverCleared(*tok)
	}
}

// abandon drops a superseded transition. Its cover is subsumed by the new
// one; an unapplied mutation never runs.
func (c *Coordinator) abandon(tok *Token) {
	if tok.cleared || tok.cancelled {
		return
	}
	for _, t := range tok.timers {
		t.Stop()
	}
	tok.cancelled = true
	c.covers--
	c.logger.Debug("transition superseded", zap.Uint64("transition", tok.ID), zap.Bool("applied", tok.swapped))
}
