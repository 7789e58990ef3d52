package sequencer

import (
	"context"
	"time"
)

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Lookahead float64       // bars per tick
	Latency   time.Duration // distance between a tick and the sound it schedules
	Grace     time.Duration // how long replaced instruments stay alive
	Timers    Timers
}

// Engine orchestrates song installs, the scheduler and the transport
type Engine struct {
	Store     *Store
	Scheduler *Scheduler
	Transport *Transport
}

// NewEngine creates a stopped engine with no song installed
func NewEngine(factory Factory, opts Options) *Engine {
	storeOpts := []StoreOption{}
	if opts.Grace > 0 {
		storeOpts = append(storeOpts, WithGrace(opts.Grace))
	}
	if opts.Timers != nil {
		storeOpts = append(storeOpts, WithTimers(opts.Timers))
	}
	store := NewStore(factory, storeOpts...)
	sched := NewScheduler(store, opts.Lookahead)
	return &Engine{
		Store:     store,
		Scheduler: sched,
		Transport: NewTransport(sched, opts.Latency),
	}
}

// Install replaces the playing song. A failed install leaves the previous
// song running.
func (e *Engine) Install(definition []byte) (*Session, error) {
	sess, err := e.Store.Install(definition)
	if err == nil {
		e.Scheduler.notifyUpdate()
	}
	return sess, err
}

// Run ticks until ctx is done (blocking - run in goroutine)
func (e *Engine) Run(ctx context.Context) {
	e.Transport.Run(ctx)
}

// Start starts playback
func (e *Engine) Start() { e.Transport.Start() }

// Pause pauses playback
func (e *Engine) Pause() { e.Transport.Pause() }

// Toggle toggles playback
func (e *Engine) Toggle() { e.Transport.Toggle() }

// Playing reports whether the transport is running
func (e *Engine) Playing() bool { return e.Transport.Playing() }

// Seek moves the song clock
func (e *Engine) Seek(bar float64) { e.Scheduler.Seek(bar) }

// UpdateChan signals state changes for the TUI
func (e *Engine) UpdateChan() <-chan struct{} { return e.Scheduler.UpdateChan }

// Status returns a snapshot for display
func (e *Engine) Status() Status {
	st := e.Scheduler.Status()
	st.Playing = e.Transport.Playing()
	return st
}

// Close pauses playback and disposes every instrument
func (e *Engine) Close() {
	e.Transport.Pause()
	e.Store.Close()
}
