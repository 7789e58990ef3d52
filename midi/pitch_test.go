package midi

import (
	"errors"
	"testing"

	"go-jamtyper/song"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		in   string
		want Token
		err  bool
	}{
		{"0", Token{0, 0}, false},
		{"-3", Token{-3, 0}, false},
		{"4#", Token{4, 1}, false},
		{"2##", Token{2, 2}, false},
		{"1bb", Token{1, -2}, false},
		{"1#b", Token{1, 0}, false},
		{"b1", Token{}, true},
		{"", Token{}, true},
		{"1.5", Token{}, true},
	}
	for _, tt := range tests {
		got, err := ParseToken(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseToken(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseToken(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseScaleOctaves(t *testing.T) {
	sc, err := ParseScale([]string{"A", "C", "E", "A"})
	if err != nil {
		t.Fatal(err)
	}
	wantOct := []int{0, 1, 1, 1}
	for i, n := range sc {
		if n.octave != wantOct[i] {
			t.Errorf("note %d octave %d, want %d", i, n.octave, wantOct[i])
		}
	}

	sc, err = ParseScale([]string{"C3", "G", "C"})
	if err != nil {
		t.Fatal(err)
	}
	if sc[0].octave != 3 || sc[1].octave != 3 || sc[2].octave != 4 {
		t.Errorf("explicit octave not carried: %+v", sc)
	}

	if _, err := ParseScale([]string{"H"}); !errors.Is(err, ErrBadScale) {
		t.Errorf("bad note err = %v", err)
	}
	if _, err := ParseScale(nil); !errors.Is(err, ErrBadScale) {
		t.Errorf("empty scale err = %v", err)
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name   string
		params song.Params
		want   []uint8
	}{
		{"default c major", song.Params{song.KeyCho: "0"}, []uint8{60}},
		{"triad", song.Params{song.KeyCho: []any{"0", "2", "4"}}, []uint8{60, 64, 67}},
		{"wraps up", song.Params{song.KeyCho: "7"}, []uint8{72}},
		{"wraps down", song.Params{song.KeyCho: "-1"}, []uint8{59}},
		{"sharp", song.Params{song.KeyCho: "2#"}, []uint8{65}},
		{"octave", song.Params{song.KeyCho: "0", song.KeyOct: 2.0}, []uint8{36}},
		{"named scale", song.Params{song.KeyCho: []any{"0", "5"}, song.KeySca: "e_major"}, []uint8{64, 73}},
		{"note list", song.Params{song.KeyCho: "1", song.KeySca: []any{"A", "C", "E"}}, []uint8{72}},
		{"numeric token", song.Params{song.KeyCho: 4.0}, []uint8{67}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Keys(tt.params)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Keys = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Keys = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestKeysErrors(t *testing.T) {
	tests := []struct {
		name   string
		params song.Params
		want   error
	}{
		{"bad token", song.Params{song.KeyCho: "x"}, ErrBadToken},
		{"unknown scale", song.Params{song.KeyCho: "0", song.KeySca: "nope"}, ErrBadScale},
		{"scale of numbers", song.Params{song.KeyCho: "0", song.KeySca: []any{1.0}}, ErrBadScale},
		{"too high", song.Params{song.KeyCho: "0", song.KeyOct: 20.0}, ErrBadToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Keys(tt.params); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScalesParse(t *testing.T) {
	for _, name := range ScaleNames() {
		if _, err := ParseScale(Scales[name]); err != nil {
			t.Errorf("scale %s: %v", name, err)
		}
	}
}

func TestVelocityPanChannel(t *testing.T) {
	if v := Velocity(song.Params{}, 1); v != DefaultVelocity {
		t.Errorf("default velocity = %d", v)
	}
	if v := Velocity(song.Params{song.KeyVol: 0.5}, 0.5); v != 25 {
		t.Errorf("velocity = %d, want 25", v)
	}
	if v := Velocity(song.Params{song.KeyVol: 3.0}, 1); v != 127 {
		t.Errorf("velocity not clamped: %d", v)
	}

	if _, ok := Pan(song.Params{}); ok {
		t.Error("pan reported without pan key")
	}
	for pan, want := range map[float64]uint8{-1: 1, 0: 64, 1: 127, 5: 127} {
		if got, _ := Pan(song.Params{song.KeyPan: pan}); got != want {
			t.Errorf("Pan(%v) = %d, want %d", pan, got, want)
		}
	}

	if ch := ChannelFor(0, []int{10}); ch != 9 {
		t.Errorf("configured channel = %d", ch)
	}
	if ch := ChannelFor(17, nil); ch != 1 {
		t.Errorf("wrapped channel = %d", ch)
	}
	if ch := ChannelFor(0, []int{99}); ch != 0 {
		t.Errorf("invalid configured channel = %d", ch)
	}
}
