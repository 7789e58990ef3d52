package song

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Song settings defaults and limits
const (
	DefaultBPM    = 120.0
	MinBPM        = 1.0
	MaxBPM        = 1000.0
	DefaultVolume = 1.0
	MaxVolume     = 5.0

	// BeatsPerBar is fixed, all positions are in 4/4 bars
	BeatsPerBar = 4
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
	ErrEmpty        = errors.New("empty song definition")
)

// TrackID groups changes into tracks. Numeric and string ids are
// canonicalised to the same text so 0 and "0" name one track.
type TrackID string

// Less orders numeric ids numerically ahead of named ones
func (a TrackID) Less(b TrackID) bool {
	fa, errA := strconv.ParseFloat(string(a), 64)
	fb, errB := strconv.ParseFloat(string(b), 64)
	switch {
	case errA == nil && errB == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// SortTracks sorts ids in place with TrackID.Less
func SortTracks(ids []TrackID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}

func (t *TrackID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*t = TrackID(x)
	case float64:
		*t = TrackID(formatNumber(x))
	case nil:
		return fmt.Errorf("track: %w", ErrMissingField)
	default:
		return fmt.Errorf("track %s: %w", data, ErrInvalidField)
	}
	return nil
}

// Change is a state change on one track. It is active from Start until Stop
// (nil means forever). With Every set it only applies for the first Over
// bars of each period; Over defaults to Every.
type Change struct {
	Track TrackID          `json:"track"`
	Start float64          `json:"start"`
	Stop  *float64         `json:"stop"`
	Every *float64         `json:"every,omitempty"`
	Over  *float64         `json:"over,omitempty"`
	State map[string]Value `json:"state"`
}

// Periodic reports whether the change repeats
func (c Change) Periodic() bool {
	return c.Every != nil
}

// Window returns the period and the active span within it
func (c Change) Window() (every, over float64) {
	if c.Every == nil {
		return 0, 0
	}
	every = *c.Every
	over = every
	if c.Over != nil {
		over = *c.Over
	}
	return every, over
}

// ActiveAt reports whether the change applies at t
func (c Change) ActiveAt(t float64) bool {
	if t < c.Start {
		return false
	}
	if c.Stop != nil && t >= *c.Stop {
		return false
	}
	if c.Every != nil {
		every, over := c.Window()
		return FMod(t-c.Start, every) < over
	}
	return true
}

type changeJSON struct {
	Track *TrackID         `json:"track"`
	Start *float64         `json:"start"`
	Stop  *float64         `json:"stop"`
	Every *float64         `json:"every"`
	Over  *float64         `json:"over"`
	State map[string]Value `json:"state"`
}

func (c *Change) UnmarshalJSON(data []byte) error {
	var raw changeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Track == nil:
		return fmt.Errorf("track: %w", ErrMissingField)
	case raw.Start == nil:
		return fmt.Errorf("start: %w", ErrMissingField)
	case raw.State == nil:
		return fmt.Errorf("state: %w", ErrMissingField)
	}
	if raw.Every != nil && !(*raw.Every > 0) {
		return fmt.Errorf("every %v must be positive: %w", *raw.Every, ErrInvalidField)
	}
	if raw.Over != nil && *raw.Over < 0 {
		return fmt.Errorf("over %v must not be negative: %w", *raw.Over, ErrInvalidField)
	}
	if err := validateState(raw.State); err != nil {
		return err
	}
	*c = Change{
		Track: *raw.Track,
		Start: *raw.Start,
		Stop:  raw.Stop,
		Every: raw.Every,
		Over:  raw.Over,
		State: raw.State,
	}
	return nil
}

// Song is an installed definition. It is never modified after Parse;
// changes are replaced by installing a new Song.
type Song struct {
	BPM     float64  `json:"bpm"`
	Volume  float64  `json:"volume"`
	Changes []Change `json:"changes"`
}

// Parse reads a JSON song definition, falling back to YAML
func Parse(data []byte) (*Song, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if !json.Valid(data) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("song is neither JSON nor YAML: %w", err)
		}
		if doc == nil {
			return nil, ErrEmpty
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert YAML song: %w", err)
		}
		data = converted
	}
	return parseJSON(data)
}

func parseJSON(data []byte) (*Song, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse song: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("song must be an object: %w", ErrInvalidField)
	}

	// decode changes one by one so errors can name the offending entry
	var raw struct {
		BPM     *float64          `json:"bpm"`
		Volume  *float64          `json:"volume"`
		Changes []json.RawMessage `json:"changes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse song: %w", err)
	}

	s := &Song{BPM: DefaultBPM, Volume: DefaultVolume}
	if raw.BPM != nil {
		s.BPM = *raw.BPM
	}
	if raw.Volume != nil {
		s.Volume = *raw.Volume
	}
	s.Changes = make([]Change, 0, len(raw.Changes))
	for i, rc := range raw.Changes {
		var c Change
		if err := json.Unmarshal(rc, &c); err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		s.Changes = append(s.Changes, c)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the song settings ranges
func (s *Song) Validate() error {
	if math.IsNaN(s.BPM) || s.BPM < MinBPM || s.BPM > MaxBPM {
		return fmt.Errorf("bpm %v outside [%v, %v]: %w", s.BPM, MinBPM, MaxBPM, ErrInvalidField)
	}
	if math.IsNaN(s.Volume) || s.Volume < 0 || s.Volume > MaxVolume {
		return fmt.Errorf("volume %v outside [0, %v]: %w", s.Volume, MaxVolume, ErrInvalidField)
	}
	return nil
}

// Tracks returns the distinct track ids in sorted order
func (s *Song) Tracks() []TrackID {
	seen := make(map[TrackID]bool)
	var ids []TrackID
	for _, c := range s.Changes {
		if !seen[c.Track] {
			seen[c.Track] = true
			ids = append(ids, c.Track)
		}
	}
	SortTracks(ids)
	return ids
}

// SecondsPerBar at the song tempo
func (s *Song) SecondsPerBar() float64 {
	return BeatsPerBar * 60 / s.BPM
}

// BarsToDuration converts a bar count into wall-clock time at the song tempo
func (s *Song) BarsToDuration(bars float64) time.Duration {
	return time.Duration(bars * s.SecondsPerBar() * float64(time.Second))
}

// Marshal writes the song as indented JSON
func (s *Song) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
