package song

import (
	"encoding/json"
	"testing"
)

func TestValueAt(t *testing.T) {
	seq := Sequence("a", "b", "c")
	tests := []struct {
		i    int
		want any
	}{
		{0, "a"},
		{2, "c"},
		{3, "a"},
		{7, "b"},
		{-1, "c"},
		{-4, "c"},
	}
	for _, tt := range tests {
		if got := seq.At(tt.i); got != tt.want {
			t.Errorf("At(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}

	sc := Scalar(0.25)
	if sc.Len() != 1 || sc.At(5) != 0.25 {
		t.Errorf("scalar indexing: len=%d at=%v", sc.Len(), sc.At(5))
	}
	if empty := Sequence(); empty.At(0) != nil || empty.Len() != 0 {
		t.Error("empty sequence should index to nil")
	}
}

func TestValueJSON(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`[0.5, 0.25]`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.IsSequence() || v.Len() != 2 {
		t.Errorf("got %+v", v)
	}
	if err := json.Unmarshal([]byte(`"sine"`), &v); err != nil {
		t.Fatal(err)
	}
	if v.IsSequence() || v.At(0) != "sine" {
		t.Errorf("got %+v", v)
	}
	out, err := json.Marshal(Sequence())
	if err != nil || string(out) != "[]" {
		t.Errorf("empty sequence marshals to %s, %v", out, err)
	}
}

func TestFloats(t *testing.T) {
	if _, ok := Sequence(1.0, "x").Floats(); ok {
		t.Error("non-numeric element accepted")
	}
	fs, ok := Scalar(0.5).Floats()
	if !ok || len(fs) != 1 || fs[0] != 0.5 {
		t.Errorf("Floats = %v, %v", fs, ok)
	}
}

func TestMod(t *testing.T) {
	if Mod(-1, 4) != 3 || Mod(5, 4) != 1 {
		t.Error("Mod")
	}
	if FMod(-1, 4) != 3 || FMod(5.5, 4) != 1.5 {
		t.Error("FMod")
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		KeyAct: 1.0,
		KeyCho: []any{"0", 2.0, nil, "4#"},
		KeyOct: 3.0,
		KeySca: []any{"C", "D", "E"},
		"osc":  "sine",
	}
	if !p.Bool(KeyAct) {
		t.Error("act 1 should be truthy")
	}
	if p.Float(KeyOct, 4) != 3 || p.Float("missing", 4) != 4 || p.Float("osc", 7) != 7 {
		t.Error("Float defaults")
	}
	chord := p.Chord()
	want := []string{"0", "2", "4#"}
	if len(chord) != len(want) {
		t.Fatalf("Chord = %v, want %v", chord, want)
	}
	for i := range want {
		if chord[i] != want[i] {
			t.Fatalf("Chord = %v, want %v", chord, want)
		}
	}
	if sca, ok := p.Strings(KeySca); !ok || len(sca) != 3 {
		t.Errorf("Strings = %v, %v", sca, ok)
	}

	falsy := []any{nil, false, 0.0, ""}
	for _, v := range falsy {
		if (Params{KeyAct: v}).Bool(KeyAct) {
			t.Errorf("%#v should be falsy", v)
		}
	}
	if !(Params{KeyAct: []any{}}).Bool(KeyAct) {
		t.Error("lists are truthy")
	}

	chords := []struct {
		cho  any
		want bool
	}{
		{"0", true},
		{"", false},
		{[]any{}, false},
		{[]any{"1"}, true},
		{3.0, true},
		{nil, false},
	}
	for _, c := range chords {
		if got := (Params{KeyCho: c.cho}).HasChord(); got != c.want {
			t.Errorf("HasChord(%#v) = %v, want %v", c.cho, got, c.want)
		}
	}
}
