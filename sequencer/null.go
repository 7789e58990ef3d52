package sequencer

import (
	"sync"
	"sync/atomic"
	"time"

	"go-jamtyper/debug"
	"go-jamtyper/song"
)

// NullInstrument is a placeholder for tracks with no output assigned. It
// accepts every trigger and only writes it to the debug log.
type NullInstrument struct {
	track    song.TrackID
	triggers atomic.Int64
	once     sync.Once
	disposed atomic.Bool
}

// NewNullInstrument creates a silent instrument for track
func NewNullInstrument(track song.TrackID) *NullInstrument {
	return &NullInstrument{track: track}
}

// NullFactory gives every track a NullInstrument
func NullFactory(track song.TrackID, _ int, _ *song.Song) (Instrument, error) {
	return NewNullInstrument(track), nil
}

func (n *NullInstrument) Trigger(pulse time.Time, offset time.Duration, p song.Params) error {
	if n.disposed.Load() {
		return ErrDisposed
	}
	n.triggers.Add(1)
	debug.LogEvery(16, "null", "track=%s at=%s cho=%v", n.track, pulse.Add(offset).Format("15:04:05.000"), p.Chord())
	return nil
}

func (n *NullInstrument) Dispose() {
	n.once.Do(func() {
		n.disposed.Store(true)
		debug.Log("null", "track=%s disposed after %d triggers", n.track, n.triggers.Load())
	})
}

// Triggers returns how many events were accepted
func (n *NullInstrument) Triggers() int64 {
	return n.triggers.Load()
}
