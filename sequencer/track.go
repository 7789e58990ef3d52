package sequencer

import (
	"sync"

	"go-jamtyper/song"
)

// Track is one output slot of an installed song
type Track struct {
	ID         song.TrackID
	Index      int // position in the sorted track list
	Instrument Instrument

	disposeOnce sync.Once
}

func newTrack(id song.TrackID, index int, inst Instrument) *Track {
	return &Track{ID: id, Index: index, Instrument: inst}
}

// Dispose releases the instrument exactly once, however often it is called
func (t *Track) Dispose() {
	t.disposeOnce.Do(func() {
		if t.Instrument != nil {
			t.Instrument.Dispose()
		}
	})
}
