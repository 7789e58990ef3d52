package pattern

import (
	"errors"
	"fmt"
	"math"

	"go-jamtyper/song"
)

// Epsilon absorbs floating point error when deciding which window an event
// falls in. An event at t is emitted by the window with lhs-Epsilon <= t < rhs-Epsilon,
// so each event lands in exactly one of two adjacent windows.
const Epsilon = 1e-6

// ErrBadDuration is returned when dur cannot drive a pattern: an element is
// not a number or is not positive.
var ErrBadDuration = errors.New("dur must be a list of positive numbers")

// ErrTooFar is returned when the window lies so many cycles after the
// pattern start that the step index no longer fits an int.
var ErrTooFar = errors.New("window too far from pattern start")

// Event is one note trigger. Time is in bars, Params holds one element of
// every state value.
type Event struct {
	Time   float64
	Params song.Params
}

// Expand walks the dur cycle of st and returns the events falling in
// [lhs, rhs). The step index is shared by every key: at step i each key
// contributes its element i, wrapped by its own length. Step 0 is at
// Since[dur], so the result does not depend on where the query started.
// start is the beginning of the enclosing query and bounds how far back the
// walk begins.
func Expand(st State, start, lhs, rhs float64) ([]Event, error) {
	durValue, ok := st.Get(song.KeyDur)
	if !ok {
		return nil, nil
	}
	durs, ok := durValue.Floats()
	if !ok || len(durs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadDuration, durValue.Items())
	}

	// prefix[i] is the offset of step i within one cycle
	prefix := make([]float64, len(durs))
	cycle := 0.0
	for i, d := range durs {
		if !(d > 0) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("%w: %v", ErrBadDuration, durs)
		}
		prefix[i] = cycle
		cycle += d
	}

	since := st.Since[song.KeyDur]
	n := len(durs)
	at := func(index int) float64 {
		return since + float64(index/n)*cycle + prefix[index%n]
	}

	// events down to lhs-Epsilon belong to this piece, so the walk starts
	// in the cycle holding that instant
	from := math.Max(start, lhs) - Epsilon
	completed := math.Floor((from - since) / cycle)
	if completed < 0 {
		completed = 0
	}
	if completed >= float64(math.MaxInt/n) {
		return nil, fmt.Errorf("%w: %.0f cycles", ErrTooFar, completed)
	}
	index := int(completed) * n

	var events []Event
	for t := at(index); t < rhs-Epsilon; index, t = index+1, at(index+1) {
		if t < lhs-Epsilon {
			continue
		}
		params := make(song.Params, len(st.Values))
		for key, v := range st.Values {
			params[key] = v.At(index)
		}
		if params.Bool(song.KeyAct) && params.HasChord() {
			events = append(events, Event{Time: t, Params: params})
		}
	}
	return events, nil
}
