package sequencer

import (
	"errors"
	"time"

	"go-jamtyper/song"
)

// ErrDisposed is returned by instruments triggered after disposal
var ErrDisposed = errors.New("instrument disposed")

// Instrument is the sound backend of one track. The scheduler calls Trigger
// from its tick goroutine, so it must not block: the sound is due at
// pulse+offset and the instrument schedules it itself.
type Instrument interface {
	// Trigger plays p at pulse+offset. cho, oct and sca choose the pitches,
	// every other key is a timbre parameter owned by the instrument.
	Trigger(pulse time.Time, offset time.Duration, p song.Params) error

	// Dispose releases the instrument. Events already triggered still sound.
	Dispose()
}

// Factory builds the instrument of one track of a song being installed.
// index is the track's position in the song's sorted track list.
type Factory func(track song.TrackID, index int, s *song.Song) (Instrument, error)

// Timers is the clock the engine schedules deferred work on
type Timers interface {
	Now() time.Time
	// AfterFunc runs f after d on another goroutine, never inside the call.
	// The returned func cancels it and reports whether it was still pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemTimers uses the wall clock
type SystemTimers struct{}

func (SystemTimers) Now() time.Time { return time.Now() }

func (SystemTimers) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
