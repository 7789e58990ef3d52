package sequencer

import (
	"errors"
	"sync"
	"time"

	"go-jamtyper/song"
)

// manualTimers only fires callbacks from Advance
type manualTimers struct {
	mu      sync.Mutex
	now     time.Time
	pending []*manualTimer
}

type manualTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualTimers() *manualTimers {
	return &manualTimers{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *manualTimers) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{at: m.now.Add(d), f: f}
	m.pending = append(m.pending, t)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (m *manualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	var due []*manualTimer
	for _, t := range m.pending {
		if !t.fired && !t.stopped && !t.at.After(m.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type trigger struct {
	pulse  time.Time
	offset time.Duration
	params song.Params
}

type recorder struct {
	track song.TrackID
	err   error

	mu       sync.Mutex
	calls    []trigger
	disposed int
}

func (r *recorder) Trigger(pulse time.Time, offset time.Duration, p song.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, trigger{pulse, offset, p})
	return nil
}

func (r *recorder) Dispose() {
	r.mu.Lock()
	r.disposed++
	r.mu.Unlock()
}

func (r *recorder) Calls() []trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trigger(nil), r.calls...)
}

func (r *recorder) Disposed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

var errNoOutput = errors.New("no output for track")

// recorders builds recording instruments and remembers every one it made
type recorders struct {
	mu      sync.Mutex
	made    []*recorder
	failOn  song.TrackID
	failing error
}

func (rs *recorders) Factory(track song.TrackID, _ int, _ *song.Song) (Instrument, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.failOn != "" && track == rs.failOn {
		return nil, errNoOutput
	}
	r := &recorder{track: track, err: rs.failing}
	rs.made = append(rs.made, r)
	return r, nil
}

func (rs *recorders) All() []*recorder {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]*recorder(nil), rs.made...)
}
