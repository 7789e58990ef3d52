package midi

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-jamtyper/debug"
	"go-jamtyper/pattern"
	"go-jamtyper/song"
)

// TicksPerQuarter is the resolution of exported files
const TicksPerQuarter = 960

const ticksPerBar = TicksPerQuarter * song.BeatsPerBar

// ExportOptions selects what part of a song is rendered
type ExportOptions struct {
	Start    float64 // bars
	Stop     float64 // bars
	Channels []int   // as in the output config, 1-16
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// Export renders [Start, Stop) of s as a Standard MIDI File with a tempo
// track and one track per song track. It returns the number of notes written.
func Export(w io.Writer, s *song.Song, opts ExportOptions) (int, error) {
	if !(opts.Stop > opts.Start) {
		return 0, fmt.Errorf("export window [%v, %v) is empty", opts.Start, opts.Stop)
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(s.BPM))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return 0, fmt.Errorf("add tempo track: %w", err)
	}

	total := 0
	end := barsToTicks(opts.Stop - opts.Start)
	for i, id := range s.Tracks() {
		ch := ChannelFor(i, opts.Channels)
		msgs, n := renderTrack(s, id, ch, opts)
		total += n

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(string(id)))
		var last uint32
		for _, m := range msgs {
			track.Add(m.tick-last, m.msg)
			last = m.tick
		}
		if last > end {
			end = last
		}
		track.Close(end - last)
		if err := sm.Add(track); err != nil {
			return total, fmt.Errorf("add track %s: %w", id, err)
		}
	}

	if _, err := sm.WriteTo(w); err != nil {
		return total, fmt.Errorf("write smf: %w", err)
	}
	return total, nil
}

// ExportFile is Export into a new file at path
func ExportFile(path string, s *song.Song, opts ExportOptions) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := Export(f, s, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func renderTrack(s *song.Song, id song.TrackID, ch uint8, opts ExportOptions) ([]timedMessage, int) {
	spb := s.SecondsPerBar()
	var msgs []timedMessage
	count := 0
	for _, ev := range pattern.Query(s, id, opts.Start, opts.Stop) {
		notes, err := Notes(ev.Params, ch, s.Volume, spb)
		if err != nil {
			debug.LogEvery(16, "midi", "export track=%s t=%.3f: %v", id, ev.Time, err)
			continue
		}
		on := barsToTicks(math.Max(0, ev.Time-opts.Start))
		for _, n := range notes {
			length := barsToTicks(n.Length.Seconds() / spb)
			if length == 0 {
				length = 1
			}
			msgs = append(msgs,
				timedMessage{tick: on, msg: gomidi.NoteOn(n.Channel, n.Key, n.Velocity)},
				timedMessage{tick: on + length, off: true, msg: gomidi.NoteOff(n.Channel, n.Key)},
			)
			count++
		}
	}
	// releases go first so a repeated key is not cut by its own note-off
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})
	return msgs, count
}

func barsToTicks(bars float64) uint32 {
	return uint32(math.Round(bars * ticksPerBar))
}
