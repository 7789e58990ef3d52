package pattern

import (
	"math"
	"sort"

	"go-jamtyper/song"
)

// Boundaries returns the instants in [start, stop) where the resolved state
// of track may change, sorted and without duplicates. Periodic changes only
// contribute the windows overlapping the range, so the cost does not grow
// with how far the song has played.
func Boundaries(changes []song.Change, track song.TrackID, start, stop float64) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	add := func(t float64) {
		if t >= start && t < stop && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, c := range changes {
		if c.Track != track {
			continue
		}
		add(c.Start)
		if c.Stop != nil {
			add(*c.Stop)
		}
		if !c.Periodic() {
			continue
		}

		every, over := c.Window()
		end := stop
		if c.Stop != nil && *c.Stop < end {
			end = *c.Stop
		}
		// period k opens at c.Start + k*every whatever the query window, so
		// every query agrees on where a piece starts. One period back covers
		// a window closing inside [start, stop).
		k := math.Floor((start-c.Start)/every) - 1
		if k < 0 {
			k = 0
		}
		for ; c.Start+k*every < end; k++ {
			w := c.Start + k*every
			add(w)
			add(w + over)
		}
	}

	sort.Float64s(out)
	return out
}
