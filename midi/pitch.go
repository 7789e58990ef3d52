package midi

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go-jamtyper/song"
)

var (
	ErrBadToken = errors.New("bad chord token")
	ErrBadScale = errors.New("bad scale")
)

// DefaultOctave is added to the scale's own octave when oct is missing
const DefaultOctave = 4

// a token is a scale degree followed by sharps or flats: "0", "-2", "4#", "1bb"
var tokenPattern = regexp.MustCompile(`^(-?[0-9]+)(#*)(b*)$`)

var notePattern = regexp.MustCompile(`^([A-Ga-g])([#b]*)(-?[0-9]+)?$`)

var pitchClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Token is a parsed chord token
type Token struct {
	Degree    int
	Semitones int // sharps minus flats
}

// ParseToken parses a chord token
func ParseToken(s string) (Token, error) {
	m := tokenPattern.FindStringSubmatch(s)
	if m == nil {
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, s)
	}
	degree, err := strconv.Atoi(m[1])
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrBadToken, s)
	}
	return Token{Degree: degree, Semitones: len(m[2]) - len(m[3])}, nil
}

// note is a scale note with its octave
type note struct {
	semis  int // pitch class plus accidentals, may leave 0..11
	octave int
}

func parseNote(s string) (note, bool, error) {
	m := notePattern.FindStringSubmatch(s)
	if m == nil {
		return note{}, false, fmt.Errorf("%w: note %q", ErrBadScale, s)
	}
	semis := pitchClass[strings.ToUpper(m[1])[0]]
	semis += strings.Count(m[2], "#") - strings.Count(m[2], "b")
	if m[3] == "" {
		return note{semis: semis}, false, nil
	}
	oct, err := strconv.Atoi(m[3])
	if err != nil {
		return note{}, false, fmt.Errorf("%w: note %q", ErrBadScale, s)
	}
	return note{semis: semis, octave: oct}, true, nil
}

// Scale is a list of notes with octaves, ready to index by degree
type Scale []note

// ParseScale reads note names. Notes without an octave continue from the
// previous note, moving up an octave whenever the pitch does not rise, so
// {"A", "C", "E"} is A0 C1 E1.
func ParseScale(names []string) (Scale, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadScale)
	}
	out := make(Scale, 0, len(names))
	octave := 0
	last := 0
	for i, name := range names {
		n, explicit, err := parseNote(name)
		if err != nil {
			return nil, err
		}
		if explicit {
			octave = n.octave
		} else if i > 0 && n.semis <= last {
			octave++
		}
		n.octave = octave
		out = append(out, n)
		last = n.semis
	}
	return out, nil
}

// Key returns the MIDI key of a degree token. Degrees wrap around the scale,
// each wrap moving one octave; oct is added to the scale's octave.
func (sc Scale) Key(tok Token, oct int) (uint8, error) {
	n := sc[song.Mod(tok.Degree, len(sc))]
	wrap := int(math.Floor(float64(tok.Degree) / float64(len(sc))))
	key := (n.octave+oct+wrap+1)*12 + n.semis + tok.Semitones
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%w: degree %d octave %d is outside the MIDI range", ErrBadToken, tok.Degree, oct)
	}
	return uint8(key), nil
}

// ScaleOf returns the scale carried by p: a note list, a scale name, or the
// default scale when sca is missing.
func ScaleOf(p song.Params) (Scale, error) {
	switch v := p[song.KeySca].(type) {
	case nil:
		return ParseScale(Scales[DefaultScale])
	case string:
		names, ok := Scales[v]
		if !ok {
			return nil, fmt.Errorf("%w: unknown scale %q", ErrBadScale, v)
		}
		return ParseScale(names)
	}
	names, ok := p.Strings(song.KeySca)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrBadScale, p[song.KeySca])
	}
	return ParseScale(names)
}

// Keys resolves the chord of p to MIDI keys. A key outside the MIDI range
// is an error; the whole chord is rejected rather than played partially.
func Keys(p song.Params) ([]uint8, error) {
	scale, err := ScaleOf(p)
	if err != nil {
		return nil, err
	}
	oct := int(math.Floor(p.Float(song.KeyOct, DefaultOctave)))

	chord := p.Chord()
	keys := make([]uint8, 0, len(chord))
	for _, s := range chord {
		tok, err := ParseToken(s)
		if err != nil {
			return nil, err
		}
		key, err := scale.Key(tok, oct)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
