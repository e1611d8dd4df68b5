package transition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)

func TestTiming_Defaults(t *testing.T) {
	tm := DefaultTiming()
	assert.Equal(t, 960*time.Millisecond, tm.SwapDelay())
	assert.Equal(t, 2550*time.Millisecond, tm.ClearDelay())
}

func TestCoordinator_PhaseTimeline(t *testing.T) {
	clock := NewManualClock(epoch)
	var trace []string
	c := New(Options{
		Clock:  clock,
		Timing: DefaultTiming(),
		Hooks: Hooks{
			CoverShown:   func(Token) { trace = append(trace, "shown") },
			Swapped:      func(Token) { trace = append(trace, "swapped") },
			CoverCleared: func(Token) { trace = append(trace, "cleared") },
		},
	})

	applied := 0
	c.Begin(context.Background(), nil, func() { applied++ })

	tok, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(960*time.Millisecond), tok.SwapAt)
	assert.Equal(t, epoch.Add(2550*time.Millisecond), tok.ClearAt)
	assert.True(t, c.Covered())

	clock.Advance(959 * time.Millisecond)
	assert.Equal(t, 0, applied, "mutation must wait for the 40% mark")

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, applied)
	assert.True(t, c.Covered(), "cover still up after the swap")

	clock.Advance(1589 * time.Millisecond)
	assert.True(t, c.Covered())

	clock.Advance(1 * time.Millisecond)
	assert.False(t, c.Covered())
	_, ok = c.Current()
	assert.False(t, ok)

	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, applied, "applied exactly once")
	assert.Equal(t, []string{"shown", "swapped", "cleared"}, trace)
}

func TestCoordinator_OverlappingLastWinsWithoutCancellation(t *testing.T) {
	clock := NewManualClock(epoch)
	c := New(Options{Clock: clock, Timing: DefaultTiming()})

	var applied []string
	c.Begin(context.Background(), nil, func() { applied = append(applied, "first") })
	clock.Advance(500 * time.Millisecond)
	second := c.Begin(context.Background(), nil, func() { applied = append(applied, "second") })

	tok, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, second, tok.ID, "slot holds the latest transition")

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"first", "second"}, applied)
	assert.False(t, c.Covered())
	assert.Equal(t, 0, clock.Pending())
}

func TestCoordinator_CancelSuperseded(t *testing.T) {
	clock := NewManualClock(epoch)
	c := New(Options{Clock: clock, Timing: DefaultTiming(), CancelSuperseded: true})

	var applied []string
	c.Begin(context.Background(), nil, func() { applied = append(applied, "first") })
	clock.Advance(500 * time.Millisecond)
	c.Begin(context.Background(), nil, func() { applied = append(applied, "second") })

	clock.Advance(5 * time.Second)
	assert.Equal(t, []string{"second"}, applied)
	assert.False(t, c.Covered())
}

func TestCoordinator_CancelKeepsAppliedMutation(t *testing.T) {
	clock := NewManualClock(epoch)
	c := New(Options{Clock: clock, Timing: DefaultTiming(), CancelSuperseded: true})

	var applied []string
	c.Begin(context.Background(), nil, func() { applied = append(applied, "first") })
	clock.Advance(time.Second)
	c.Begin(context.Background(), nil, func() { applied = append(applied, "second") })
	clock.Advance(5 * time.Second)

	assert.Equal(t, []string{"first", "second"}, applied)
	assert.False(t, c.Covered())
}

type gatePreloader struct {
	mu      sync.Mutex
	calls   [][]string
	release chan struct{}
}

func (p *gatePreloader) Preload(ctx context.Context, urls []string, timeout time.Duration) {
	p.mu.Lock()
	p.calls = append(p.calls, urls)
	p.mu.Unlock()
	if p.release != nil {
		<-p.release
	}
}

func TestCoordinator_WaitsForPreloadBeforeCover(t *testing.T) {
	clock := NewManualClock(epoch)
	pre := &gatePreloader{release: make(chan struct{})}
	posted := make(chan func(), 4)

	c := New(Options{
		Clock:     clock,
		Timing:    DefaultTiming(),
		Preloader: pre,
		Post:      func(f func()) { posted <- f },
	})

	applied := false
	c.Begin(context.Background(), []string{"/backgrounds/intro.jpg"}, func() { applied = true })
	assert.False(t, c.Covered(), "cover waits for assets")

	close(pre.release)
	select {
	case f := <-posted:
		f()
	case <-time.After(time.Second):
		t.Fatalf("preload completion was never posted")
	}
	require.True(t, c.Covered())

	clock.Advance(960 * time.Millisecond)
	select {
	case f := <-posted:
		f()
	case <-time.After(time.Second):
		t.Fatalf("swap was never posted")
	}
	assert.True(t, applied)

	pre.mu.Lock()
	defer pre.mu.Unlock()
	assert.Equal(t, [][]string{{"/backgrounds/intro.jpg"}}, pre.calls)
}

func TestManualClock_StopPreventsFire(t *testing.T) {
	clock := NewManualClock(epoch)
	fired := false
	tm := clock.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	clock.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, epoch.Add(2*time.Second), clock.Now())
}
