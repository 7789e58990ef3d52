package midi

import "sort"

// Scales maps a scale name to its notes over one octave. A song may name a
// scale ("sca": "e_major") instead of listing notes.
var Scales = map[string][]string{
	"chromatic":      {"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"},
	"c_major":        {"C", "D", "E", "F", "G", "A", "B"},
	"c_minor":        {"C", "D", "Eb", "F", "G", "Ab", "Bb"},
	"c_major_penta":  {"C", "D", "E", "G", "A"},
	"c_minor_penta":  {"C", "Eb", "F", "G", "Bb"},
	"c_blues":        {"C", "Eb", "F", "F#", "G", "Bb"},
	"d_dorian":       {"D", "E", "F", "G", "A", "B", "C"},
	"d_minor":        {"D", "E", "F", "G", "A", "Bb", "C"},
	"e_major":        {"E", "F#", "G#", "A", "B", "C#", "D#"},
	"e_minor":        {"E", "F#", "G", "A", "B", "C", "D"},
	"e_major_penta":  {"E", "F#", "G#", "B", "C#"},
	"e_minor_penta":  {"E", "G", "A", "B", "D"},
	"e_phrygian":     {"E", "F", "G", "A", "B", "C", "D"},
	"f_major":        {"F", "G", "A", "Bb", "C", "D", "E"},
	"g_major":        {"G", "A", "B", "C", "D", "E", "F#"},
	"g_mixolydian":   {"G", "A", "B", "C", "D", "E", "F"},
	"a_minor":        {"A", "B", "C", "D", "E", "F", "G"},
	"a_minor_penta":  {"A", "C", "D", "E", "G"},
	"a_harmonic":     {"A", "B", "C", "D", "E", "F", "G#"},
	"b_locrian":      {"B", "C", "D", "E", "F", "G", "A"},
	"whole_tone":     {"C", "D", "E", "F#", "G#", "A#"},
	"c_hirajoshi":    {"C", "D", "Eb", "G", "Ab"},
	"c_major_triad":  {"C", "E", "G"},
	"a_minor_triad":  {"A", "C", "E"},
	"c_dominant_7th": {"C", "E", "G", "Bb"},
}

// DefaultScale is used when a trigger carries no sca
const DefaultScale = "c_major"

// ScaleNames returns the list of available scale names
func ScaleNames() []string {
	names := make([]string, 0, len(Scales))
	for name := range Scales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
