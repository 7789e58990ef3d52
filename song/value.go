package song

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a state parameter: either a single scalar or a sequence that is
// cycled through by index. A scalar indexes like a sequence of length one.
type Value struct {
	seq    []any
	scalar any
	isSeq  bool
}

// Scalar wraps a single value
func Scalar(v any) Value {
	return Value{scalar: v}
}

// Sequence wraps a list of values
func Sequence(items ...any) Value {
	return Value{seq: items, isSeq: true}
}

// IsSequence reports whether v was written as a list
func (v Value) IsSequence() bool {
	return v.isSeq
}

// Len is 1 for scalars
func (v Value) Len() int {
	if v.isSeq {
		return len(v.seq)
	}
	return 1
}

// At returns the element at i, wrapping with floored modulo so negative
// indices count from the end. An empty sequence yields nil.
func (v Value) At(i int) any {
	if !v.isSeq {
		return v.scalar
	}
	n := len(v.seq)
	if n == 0 {
		return nil
	}
	return v.seq[Mod(i, n)]
}

// Items returns the elements as a list (a scalar becomes one element).
// The returned slice must not be modified.
func (v Value) Items() []any {
	if v.isSeq {
		return v.seq
	}
	return []any{v.scalar}
}

// Floats converts every element to a number. ok is false if any element
// is not numeric.
func (v Value) Floats() (out []float64, ok bool) {
	items := v.Items()
	out = make([]float64, 0, len(items))
	for _, it := range items {
		f, isNum := toFloat(it)
		if !isNum {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// MarshalJSON writes the value back in its source shape
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isSeq {
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON keeps arrays as sequences and anything else as a scalar
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if items, ok := raw.([]any); ok {
		*v = Value{seq: items, isSeq: true}
		return nil
	}
	*v = Value{scalar: raw}
	return nil
}

// Mod is modulo with the sign of the divisor
func Mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// FMod is floating point modulo with the sign of the divisor
func FMod(a, n float64) float64 {
	return a - n*math.Floor(a/n)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// truthy follows the loose rules songs are written against: false, 0,
// "", null and NaN are false, everything else (including lists) is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
