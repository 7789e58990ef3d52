package song

import (
	"fmt"
	"math"
	"regexp"
	"sort"
)

// chordToken is a scale degree with optional sharps then flats
var chordToken = regexp.MustCompile(`^(-?[0-9]+)([#]*)([b]*)$`)

var oscillators = map[string]bool{"sine": true, "square": true, "sawtooth": true, "triangle": true}

type numRange struct {
	min, max float64
}

var numericRanges = map[string]numRange{
	KeyHar: {0, 32},
	KeySpr: {0.01, 1},
	KeyVoi: {1, 16},
	KeyAtk: {0.001, 10},
	KeyDec: {0.001, 10},
	KeyRel: {0.001, 10},
	KeySus: {0, math.Inf(1)},
}

// validateState checks every element of the reserved keys. dur is left
// to resolution time, where a non-positive step ends the expansion with a
// warning instead of rejecting the whole song.
func validateState(state map[string]Value) error {
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for i, item := range state[key].Items() {
			if err := validateItem(key, item); err != nil {
				return fmt.Errorf("state %s[%d]: %w", key, i, err)
			}
		}
	}
	return nil
}

func validateItem(key string, item any) error {
	switch key {
	case KeyCho:
		if notes, ok := item.([]any); ok {
			for _, n := range notes {
				if err := validateToken(n); err != nil {
					return err
				}
			}
			return nil
		}
		// "" is a rest, like an empty list
		if item == "" {
			return nil
		}
		return validateToken(item)

	case KeyOsc:
		name, _ := item.(string)
		if !oscillators[name] {
			return fmt.Errorf("oscillator %v is not sine, square, sawtooth or triangle: %w", item, ErrInvalidField)
		}

	case KeySca:
		if notes, ok := item.([]any); ok {
			for _, n := range notes {
				if _, ok := n.(string); !ok {
					return fmt.Errorf("scale note %v is not a string: %w", n, ErrInvalidField)
				}
			}
			return nil
		}
		if _, ok := item.(string); !ok {
			return fmt.Errorf("scale %v is not a name or a list of notes: %w", item, ErrInvalidField)
		}

	case KeyOct, KeyLen, KeyVol, KeyPan:
		if _, ok := toFloat(item); !ok {
			return fmt.Errorf("%v is not a number: %w", item, ErrInvalidField)
		}

	default:
		r, ok := numericRanges[key]
		if !ok {
			return nil
		}
		f, isNum := toFloat(item)
		if !isNum || math.IsNaN(f) || f < r.min || f > r.max {
			return fmt.Errorf("%v outside [%v, %v]: %w", item, r.min, r.max, ErrInvalidField)
		}
	}
	return nil
}

func validateToken(v any) error {
	switch x := v.(type) {
	case string:
		if chordToken.MatchString(x) {
			return nil
		}
	default:
		if f, ok := toFloat(v); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return nil
		}
	}
	return fmt.Errorf("chord token %v: %w", v, ErrInvalidField)
}
