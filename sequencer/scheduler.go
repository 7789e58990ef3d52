package sequencer

import (
	"math"
	"sync"
	"time"

	"go-jamtyper/debug"
	"go-jamtyper/pattern"
	"go-jamtyper/song"
)

// DefaultLookahead is the window each tick schedules, in bars
const DefaultLookahead = 0.5

// recentLimit is how many dispatched events per track the monitor keeps
const recentLimit = 32

// Scheduler owns the song clock. Every tick dispatches the events of the
// next lookahead window and advances the clock by exactly that window, so
// consecutive ticks cover the timeline without gaps or overlaps.
type Scheduler struct {
	store     *Store
	lookahead float64

	mu         sync.Mutex
	clock      float64 // bars
	muted      map[song.TrackID]bool
	recent     map[song.TrackID][]pattern.Event
	dispatched uint64
	failed     uint64

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewScheduler creates a scheduler reading songs from store
func NewScheduler(store *Store, lookahead float64) *Scheduler {
	if !(lookahead > 0) {
		lookahead = DefaultLookahead
	}
	return &Scheduler{
		store:      store,
		lookahead:  lookahead,
		muted:      make(map[song.TrackID]bool),
		recent:     make(map[song.TrackID][]pattern.Event),
		UpdateChan: make(chan struct{}, 1),
	}
}

// Lookahead returns the window size in bars
func (s *Scheduler) Lookahead() float64 {
	return s.lookahead
}

// TickPeriod is the wall-clock time one window lasts at the installed tempo
func (s *Scheduler) TickPeriod() time.Duration {
	bpm := song.DefaultBPM
	if sess := s.store.Current(); sess != nil {
		bpm = sess.Song.BPM
	}
	return time.Duration(s.lookahead * song.BeatsPerBar * 60 / bpm * float64(time.Second))
}

// Tick dispatches every event in [clock, clock+lookahead) to its track's
// instrument, due at pulse plus the event's distance from the window start,
// then advances the clock. It returns the number of events dispatched.
func (s *Scheduler) Tick(pulse time.Time) int {
	sess := s.store.Current()

	s.mu.Lock()
	start := s.clock
	s.mu.Unlock()
	stop := start + s.lookahead

	sent := 0
	var failed uint64
	fired := make(map[song.TrackID][]pattern.Event)
	if sess != nil {
		for _, tr := range sess.Tracks {
			if s.Muted(tr.ID) {
				continue
			}
			for _, ev := range sess.Query(tr.ID, start, stop) {
				// events pulled in by the epsilon rule are due now
				offset := sess.Song.BarsToDuration(math.Max(0, ev.Time-start))
				if err := tr.Instrument.Trigger(pulse, offset, ev.Params); err != nil {
					failed++
					debug.LogEvery(16, "sched", "track=%s t=%.3f: %v", tr.ID, ev.Time, err)
					continue
				}
				sent++
				fired[tr.ID] = append(fired[tr.ID], ev)
			}
		}
	}

	s.mu.Lock()
	// a seek during the tick wins over the advance
	if s.clock == start {
		s.clock = stop
	}
	for id, evs := range fired {
		r := append(s.recent[id], evs...)
		if len(r) > recentLimit {
			r = r[len(r)-recentLimit:]
		}
		s.recent[id] = r
	}
	s.dispatched += uint64(sent)
	s.failed += failed
	s.mu.Unlock()

	debug.LogEvery(32, "sched", "window [%.2f, %.2f) sent=%d", start, stop, sent)
	s.notifyUpdate()
	return sent
}

// Clock returns the start of the next window, in bars
func (s *Scheduler) Clock() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Seek moves the clock to bar, rounded to hundredths of a bar
func (s *Scheduler) Seek(bar float64) {
	bar = math.Round(bar*100) / 100
	s.mu.Lock()
	s.clock = bar
	s.recent = make(map[song.TrackID][]pattern.Event)
	s.mu.Unlock()
	debug.Log("sched", "seek to %.2f", bar)
	s.notifyUpdate()
}

// SetMuted silences a track without touching the song
func (s *Scheduler) SetMuted(id song.TrackID, muted bool) {
	s.mu.Lock()
	if muted {
		s.muted[id] = true
	} else {
		delete(s.muted, id)
	}
	s.mu.Unlock()
	s.notifyUpdate()
}

// ToggleMute flips the mute of a track and returns the new state
func (s *Scheduler) ToggleMute(id song.TrackID) bool {
	muted := !s.Muted(id)
	s.SetMuted(id, muted)
	return muted
}

// Muted reports whether a track is muted
func (s *Scheduler) Muted(id song.TrackID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted[id]
}

// notifyUpdate wakes the TUI without blocking
func (s *Scheduler) notifyUpdate() {
	select {
	case s.UpdateChan <- struct{}{}:
	default:
	}
}
