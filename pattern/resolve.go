// Package pattern turns a song's change list into timed events. Every
// function here is pure: the same song, track and window always give the
// same result, and nothing is remembered between calls.
package pattern

import (
	"go-jamtyper/song"
)

// State is the resolved parameter set of a track at one instant. Since
// holds, per key, the start of the change that last set it; cycling
// sequences are phased from that point.
type State struct {
	Values map[string]song.Value
	Since  map[string]float64
}

// Get returns the value of key and whether it is set
func (s State) Get(key string) (song.Value, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Resolve folds the active changes of track at t, in list order, so a later
// change overrides the keys it names and leaves the others alone.
func Resolve(changes []song.Change, track song.TrackID, t float64) State {
	st := State{
		Values: make(map[string]song.Value),
		Since:  make(map[string]float64),
	}
	for _, c := range changes {
		if c.Track != track || !c.ActiveAt(t) {
			continue
		}
		for key, v := range c.State {
			st.Values[key] = v
			st.Since[key] = c.Start
		}
	}
	return st
}
