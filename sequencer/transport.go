package sequencer

import (
	"context"
	"sync/atomic"
	"time"

	"go-jamtyper/debug"
)

// Transport drives the scheduler from a ticker whose period is one
// lookahead window at the installed tempo. While paused the ticker keeps
// running and ticks are skipped, so the clock holds its position.
type Transport struct {
	sched   *Scheduler
	latency time.Duration

	playing atomic.Bool
	ticks   atomic.Uint64
	wake    chan struct{} // start requested, tick immediately
}

// NewTransport creates a stopped transport. Each window is scheduled to
// sound latency after the tick that computed it.
func NewTransport(sched *Scheduler, latency time.Duration) *Transport {
	if latency < 0 {
		latency = 0
	}
	return &Transport{
		sched:   sched,
		latency: latency,
		wake:    make(chan struct{}, 1),
	}
}

// Start begins playback from the current clock
func (t *Transport) Start() {
	if !t.playing.CompareAndSwap(false, true) {
		return
	}
	debug.Log("transport", "start at %.2f", t.sched.Clock())
	select {
	case t.wake <- struct{}{}:
	default:
	}
	t.sched.notifyUpdate()
}

// Pause stops ticking, keeping the clock where it is
func (t *Transport) Pause() {
	if t.playing.CompareAndSwap(true, false) {
		debug.Log("transport", "pause at %.2f", t.sched.Clock())
		t.sched.notifyUpdate()
	}
}

// Toggle switches between playing and paused
func (t *Transport) Toggle() {
	if t.Playing() {
		t.Pause()
	} else {
		t.Start()
	}
}

// Playing reports whether ticks are being dispatched
func (t *Transport) Playing() bool {
	return t.playing.Load()
}

// Ticks returns how many windows have been dispatched
func (t *Transport) Ticks() uint64 {
	return t.ticks.Load()
}

// Run is the tick loop (blocking - run in goroutine). Ticks never overlap:
// a slow tick delays the next one instead of running beside it, and the
// windows it held up are dispatched on the following wake with the pulses
// they would have had.
func (t *Transport) Run(ctx context.Context) {
	period := t.sched.TickPeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var grid tickGrid
	grid.reset(time.Now(), period)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.wake:
			if !t.playing.Load() {
				continue
			}
			// restart the grid at the moment playback starts
			now := time.Now()
			grid.reset(now, period)
			ticker.Reset(period)
			t.fireDue(&grid, now)
		case <-ticker.C:
			if !t.playing.Load() {
				continue
			}
			t.fireDue(&grid, time.Now())
		}

		// follow tempo changes from newly installed songs
		if p := t.sched.TickPeriod(); p != period {
			debug.Log("transport", "tick period %s -> %s", period, p)
			period = p
			grid.retime(p)
			ticker.Reset(period)
		}
	}
}

func (t *Transport) fireDue(grid *tickGrid, now time.Time) {
	for _, pulse := range grid.due(now) {
		t.sched.Tick(pulse.Add(t.latency))
		t.ticks.Add(1)
	}
}

// maxCatchUp bounds how many missed windows are dispatched back to back
// after a stall. Past it the grid restarts at the current time.
const maxCatchUp = 8

// tickGrid places tick n at anchor + n*period, so a late wake up does not
// push every later pulse back.
type tickGrid struct {
	anchor time.Time
	period time.Duration
	next   int64 // first tick not yet fired
}

func (g *tickGrid) reset(now time.Time, period time.Duration) {
	*g = tickGrid{anchor: now, period: period}
}

func (g *tickGrid) at(n int64) time.Time {
	return g.anchor.Add(time.Duration(n) * g.period)
}

// due returns the pulses of the ticks at or before now and marks them fired
func (g *tickGrid) due(now time.Time) []time.Time {
	var out []time.Time
	for !g.at(g.next).After(now) {
		if len(out) == maxCatchUp {
			debug.Log("transport", "more than %d ticks behind, restarting the grid", maxCatchUp)
			g.anchor, g.next = now, 1
			break
		}
		out = append(out, g.at(g.next))
		g.next++
	}
	return out
}

// retime switches to a new period, counted from the last fired tick
func (g *tickGrid) retime(period time.Duration) {
	if g.next > 0 {
		g.anchor, g.next = g.at(g.next-1), 1
	}
	g.period = period
}
