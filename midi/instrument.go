package midi

import (
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-jamtyper/debug"
	"go-jamtyper/sequencer"
	"go-jamtyper/song"
)

// Sender writes one message to an output port
type Sender func(gomidi.Message) error

// Instrument plays triggers as notes on one MIDI channel. Note-on and
// note-off are scheduled on timers, so Trigger returns immediately.
type Instrument struct {
	track   song.TrackID
	channel uint8
	send    Sender
	timers  sequencer.Timers

	secondsPerBar float64
	volume        float64

	mu       sync.Mutex
	pan      int // last CC10 sent, -1 for none
	disposed bool
}

// NewInstrument creates an instrument for track on channel (0-15)
func NewInstrument(track song.TrackID, channel uint8, send Sender, timers sequencer.Timers, s *song.Song) *Instrument {
	if timers == nil {
		timers = sequencer.SystemTimers{}
	}
	return &Instrument{
		track:         track,
		channel:       channel,
		send:          send,
		timers:        timers,
		secondsPerBar: s.SecondsPerBar(),
		volume:        s.Volume,
		pan:           -1,
	}
}

// Channel returns the MIDI channel (0-15)
func (in *Instrument) Channel() uint8 {
	return in.channel
}

func (in *Instrument) Trigger(pulse time.Time, offset time.Duration, p song.Params) error {
	in.mu.Lock()
	disposed := in.disposed
	in.mu.Unlock()
	if disposed {
		return sequencer.ErrDisposed
	}

	notes, err := Notes(p, in.channel, in.volume, in.secondsPerBar)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}
	pan, hasPan := Pan(p)

	delay := pulse.Add(offset).Sub(in.timers.Now())
	if delay < 0 {
		delay = 0
	}

	in.timers.AfterFunc(delay, func() {
		if hasPan {
			in.sendPan(pan)
		}
		for _, n := range notes {
			in.write(gomidi.NoteOn(n.Channel, n.Key, n.Velocity))
		}
	})
	in.timers.AfterFunc(delay+notes[0].Length, func() {
		for _, n := range notes {
			in.write(gomidi.NoteOff(n.Channel, n.Key))
		}
	})
	return nil
}

func (in *Instrument) sendPan(value uint8) {
	in.mu.Lock()
	changed := in.pan != int(value)
	in.pan = int(value)
	in.mu.Unlock()
	if changed {
		in.write(gomidi.ControlChange(in.channel, PanController, value))
	}
}

func (in *Instrument) write(msg gomidi.Message) {
	if in.send == nil {
		return
	}
	if err := in.send(msg); err != nil {
		debug.LogEvery(16, "midi", "track=%s send %s: %v", in.track, msg, err)
	}
}

// Dispose stops accepting triggers. Notes already scheduled still play
// and release.
func (in *Instrument) Dispose() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.disposed {
		in.disposed = true
		debug.Log("midi", "track=%s ch=%d disposed", in.track, in.channel+1)
	}
}
