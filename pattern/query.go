package pattern

import (
	"sort"

	"go-jamtyper/debug"
	"go-jamtyper/song"
)

// Query returns the events of track in [start, stop) in time order. The
// window is split at every state boundary and each piece is expanded with
// the state in force inside it. The state is read at the middle of the
// piece: a computed boundary can sit an ulp off the instant ActiveAt flips,
// and the middle is always clear of both edges.
func Query(s *song.Song, track song.TrackID, start, stop float64) []Event {
	if s == nil || !(stop > start) {
		return nil
	}

	times := append(Boundaries(s.Changes, track, start, stop), start, stop)
	sort.Float64s(times)

	var events []Event
	for i := 0; i+1 < len(times); i++ {
		lhs, rhs := times[i], times[i+1]
		if lhs == rhs {
			continue
		}
		st := Resolve(s.Changes, track, lhs+(rhs-lhs)/2)
		evs, err := Expand(st, start, lhs, rhs)
		if err != nil {
			debug.LogEvery(50, "pattern", "track %s at %.3f: %v", track, lhs, err)
			continue
		}
		events = append(events, evs...)
	}
	return events
}
