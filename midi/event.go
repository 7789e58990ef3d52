package midi

import (
	"math"
	"time"

	"go-jamtyper/song"
)

// Defaults for the trigger parameters the MIDI backend reads
const (
	DefaultLength   = 1.0 / 8 // bars
	DefaultVelocity = 100
	PanController   = 10
)

// Note is one resolved MIDI note of a trigger
type Note struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	Length   time.Duration
}

// Notes resolves a trigger into MIDI notes. volume is the song volume and
// secondsPerBar converts len into time. A zero velocity gives no notes.
func Notes(p song.Params, channel uint8, volume, secondsPerBar float64) ([]Note, error) {
	keys, err := Keys(p)
	if err != nil {
		return nil, err
	}
	vel := Velocity(p, volume)
	if vel == 0 {
		return nil, nil
	}
	length := time.Duration(p.Float(song.KeyLen, DefaultLength) * secondsPerBar * float64(time.Second))
	if length < time.Millisecond {
		length = time.Millisecond
	}

	notes := make([]Note, 0, len(keys))
	for _, k := range keys {
		notes = append(notes, Note{Channel: channel, Key: k, Velocity: vel, Length: length})
	}
	return notes, nil
}

// Velocity scales vol by the song volume, clamped to 0..127
func Velocity(p song.Params, volume float64) uint8 {
	v := math.Round(p.Float(song.KeyVol, 1) * volume * DefaultVelocity)
	return uint8(math.Max(0, math.Min(127, v)))
}

// Pan maps pan in [-1, 1] to a CC value. ok is false when pan is not set.
func Pan(p song.Params) (value uint8, ok bool) {
	if _, set := p[song.KeyPan]; !set {
		return 0, false
	}
	pan := math.Max(-1, math.Min(1, p.Float(song.KeyPan, 0)))
	return uint8(math.Round(64 + pan*63)), true
}

// ChannelFor picks the MIDI channel (0-15) of the track at index. channels
// holds configured 1-16 channel numbers; tracks beyond it wrap over all 16.
func ChannelFor(index int, channels []int) uint8 {
	if index >= 0 && index < len(channels) && channels[index] >= 1 && channels[index] <= 16 {
		return uint8(channels[index] - 1)
	}
	return uint8(song.Mod(index, 16))
}
