package song

// Reserved state keys. Everything else is passed through to the instrument.
const (
	KeyDur = "dur" // step durations in bars
	KeyAct = "act" // gate, events are emitted only while truthy
	KeyCho = "cho" // chord: scale-degree tokens

	KeyOct = "oct"
	KeySca = "sca"
	KeyLen = "len"
	KeyVol = "vol"
	KeyPan = "pan"

	// synth settings, range checked at load time and passed through
	KeyOsc = "osc"
	KeyHar = "har"
	KeySpr = "spr"
	KeyVoi = "voi"
	KeyAtk = "atk"
	KeyDec = "dec"
	KeySus = "sus"
	KeyRel = "rel"
)

// Params is one event's parameter set. Every value is a single element
// picked out of the corresponding state Value.
type Params map[string]any

// Float returns the numeric value of key, or def when missing or not a number
func (p Params) Float(key string, def float64) float64 {
	if f, ok := toFloat(p[key]); ok {
		return f
	}
	return def
}

// Bool applies the loose truthiness songs are written against
func (p Params) Bool(key string) bool {
	return truthy(p[key])
}

// HasChord reports whether cho holds at least one token
func (p Params) HasChord() bool {
	switch x := p[KeyCho].(type) {
	case nil:
		return false
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	}
	_, ok := toFloat(p[KeyCho])
	return ok
}

// Chord returns the cho tokens. A single token (string or number) is a
// one-note chord. Elements that are neither strings nor numbers are skipped.
func (p Params) Chord() []string {
	var items []any
	switch x := p[KeyCho].(type) {
	case nil:
		return nil
	case []any:
		items = x
	case []string:
		return append([]string(nil), x...)
	default:
		items = []any{x}
	}
	tokens := make([]string, 0, len(items))
	for _, it := range items {
		if tok, ok := token(it); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func token(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, s != ""
	}
	if f, ok := toFloat(v); ok {
		return formatNumber(f), true
	}
	return "", false
}

// Strings converts a list element of key into strings (scale note lists)
func (p Params) Strings(key string) ([]string, bool) {
	switch x := p[key].(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, it := range x {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
