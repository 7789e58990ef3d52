package pattern

import (
	"errors"
	"reflect"
	"testing"

	"go-jamtyper/song"
)

func mustParse(t *testing.T, doc string) *song.Song {
	t.Helper()
	s, err := song.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func times(events []Event) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Time
	}
	return out
}

const layered = `{"changes": [
	{"track": 0, "start": 0, "state": {"dur": [0.25, 0.5], "act": true, "cho": ["0", "2", "4"], "vol": [1, 0.5]}},
	{"track": 0, "start": 2, "stop": 6, "every": 2, "over": 1, "state": {"cho": [["0", "4"], "7"], "oct": 5}},
	{"track": 0, "start": 3, "state": {"act": [true, false, true]}},
	{"track": 1, "start": 0.5, "state": {"dur": 1, "act": 1, "cho": "0"}}
]}`

func TestConcreteScenario(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 0, "start": 0, "stop": null, "state": {"dur": [1], "act": true, "cho": ["0", "2", "4"]}}
	]}`)

	events := Query(s, "0", 0, 3)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), times(events))
	}
	wantCho := []string{"0", "2", "4"}
	for i, e := range events {
		if e.Time != float64(i) {
			t.Errorf("event %d at %v, want %d", i, e.Time, i)
		}
		if e.Params[song.KeyCho] != wantCho[i] {
			t.Errorf("event %d cho = %v, want %s", i, e.Params[song.KeyCho], wantCho[i])
		}
	}
}

func TestDeterminism(t *testing.T) {
	s := mustParse(t, layered)
	a := Query(s, "0", 0, 8)
	b := Query(s, "0", 0, 8)
	if len(a) == 0 {
		t.Fatal("no events")
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical queries returned different events")
	}
}

func TestWindowPartition(t *testing.T) {
	s := mustParse(t, layered)
	for _, track := range []song.TrackID{"0", "1"} {
		whole := Query(s, track, 0, 8)
		for _, mid := range []float64{0.1, 1.3, 2, 3, 4.1, 5.5, 7.99} {
			split := append(Query(s, track, 0, mid), Query(s, track, mid, 8)...)
			if len(split) != len(whole) {
				t.Fatalf("track %s split at %v: %d events, want %d\nsplit=%v\nwhole=%v",
					track, mid, len(split), len(whole), times(split), times(whole))
			}
			for i := range whole {
				if !reflect.DeepEqual(split[i], whole[i]) {
					t.Errorf("track %s split at %v: event %d = %+v, want %+v", track, mid, i, split[i], whole[i])
				}
			}
		}
	}
}

func TestLookaheadSizedWindowsMatchOneQuery(t *testing.T) {
	s := mustParse(t, layered)
	whole := Query(s, "0", 0, 8)
	var ticked []Event
	for clock := 0.0; clock < 8; clock += 0.5 {
		ticked = append(ticked, Query(s, "0", clock, clock+0.5)...)
	}
	if !reflect.DeepEqual(ticked, whole) {
		t.Errorf("ticked windows differ from one query\nticked=%v\nwhole=%v", times(ticked), times(whole))
	}
}

func TestPhaseInvariance(t *testing.T) {
	s := mustParse(t, layered)
	for _, e := range Query(s, "0", 0, 8) {
		found := false
		for _, n := range Query(s, "0", e.Time-0.1, e.Time+0.1) {
			if n.Time == e.Time {
				found = true
				if !reflect.DeepEqual(n.Params, e.Params) {
					t.Errorf("event at %v: params %v, want %v", e.Time, n.Params, e.Params)
				}
			}
		}
		if !found {
			t.Errorf("event at %v missing from narrow query", e.Time)
		}
	}
}

func TestPeriodicGating(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": "a", "start": 0, "every": 4, "over": 1, "state": {"cho": "0"}}
	]}`)

	got := Boundaries(s.Changes, "a", 0, 10)
	want := []float64{0, 1, 4, 5, 8, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Boundaries = %v, want %v", got, want)
	}

	if _, ok := Resolve(s.Changes, "a", 2).Get(song.KeyCho); ok {
		t.Error("periodic change active at 2")
	}
	if _, ok := Resolve(s.Changes, "a", 4.5).Get(song.KeyCho); !ok {
		t.Error("periodic change inactive at 4.5")
	}

	// starting mid-period still finds the current window
	got = Boundaries(s.Changes, "a", 4.5, 9)
	if want := []float64{5, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("Boundaries(4.5, 9) = %v, want %v", got, want)
	}
}

func TestBoundariesRespectStop(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 1, "start": 1, "stop": 6, "every": 2, "over": 0.5, "state": {}},
		{"track": 2, "start": 0, "state": {}}
	]}`)
	got := Boundaries(s.Changes, "1", 0, 20)
	want := []float64{1, 1.5, 3, 3.5, 5, 5.5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Boundaries = %v, want %v", got, want)
	}
	if got := Boundaries(s.Changes, "9", 0, 20); len(got) != 0 {
		t.Errorf("unknown track boundaries = %v", got)
	}
}

func TestPrecedence(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 0, "start": 0, "state": {"oct": 3, "cho": "0"}},
		{"track": 0, "start": 1, "state": {"oct": 5}}
	]}`)

	st := Resolve(s.Changes, "0", 2)
	if oct, _ := st.Get(song.KeyOct); oct.At(0) != 5.0 {
		t.Errorf("oct = %v, want 5 from the later change", oct.At(0))
	}
	if st.Since[song.KeyOct] != 1 || st.Since[song.KeyCho] != 0 {
		t.Errorf("since = %v", st.Since)
	}

	s.Changes[0], s.Changes[1] = s.Changes[1], s.Changes[0]
	st = Resolve(s.Changes, "0", 2)
	if oct, _ := st.Get(song.KeyOct); oct.At(0) != 3.0 {
		t.Errorf("reordered oct = %v, want 3", oct.At(0))
	}
}

func TestResolveUnknownTrack(t *testing.T) {
	s := mustParse(t, layered)
	st := Resolve(s.Changes, "nope", 1)
	if len(st.Values) != 0 || len(st.Since) != 0 {
		t.Errorf("state = %+v", st)
	}
	if evs := Query(s, "nope", 0, 4); len(evs) != 0 {
		t.Errorf("events = %v", times(evs))
	}
}

func TestSharedIndex(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 0, "start": 0, "state": {"dur": [1, 1], "act": true, "cho": ["0", "1", "2"], "vol": [1, 0.5]}}
	]}`)
	events := Query(s, "0", 0, 6)
	wantCho := []string{"0", "1", "2", "0", "1", "2"}
	wantVol := []float64{1, 0.5, 1, 0.5, 1, 0.5}
	if len(events) != 6 {
		t.Fatalf("got %d events", len(events))
	}
	for i, e := range events {
		if e.Params[song.KeyCho] != wantCho[i] || e.Params[song.KeyVol] != wantVol[i] {
			t.Errorf("step %d: cho=%v vol=%v", i, e.Params[song.KeyCho], e.Params[song.KeyVol])
		}
	}
}

func TestPhaseStartsAtChange(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 0, "start": 0, "state": {"dur": 1, "act": true, "cho": "0"}},
		{"track": 0, "start": 2.5, "state": {"dur": 1, "cho": ["1", "2"]}}
	]}`)
	got := times(Query(s, "0", 0, 5))
	want := []float64{0, 1, 2, 2.5, 3.5, 4.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("times = %v, want %v", got, want)
	}
	evs := Query(s, "0", 3, 5)
	if len(evs) != 2 || evs[0].Params[song.KeyCho] != "2" || evs[1].Params[song.KeyCho] != "1" {
		t.Errorf("events after 3 = %+v", evs)
	}
}

func TestSuppressedEvents(t *testing.T) {
	tests := []struct {
		name  string
		state string
	}{
		{"act false", `{"dur": 1, "act": false, "cho": "0"}`},
		{"act missing", `{"dur": 1, "cho": "0"}`},
		{"empty chord", `{"dur": 1, "act": true, "cho": [[]]}`},
		{"empty chord string", `{"dur": 1, "act": true, "cho": ""}`},
		{"no cho", `{"dur": 1, "act": true}`},
		{"no dur", `{"act": true, "cho": "0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, `{"changes": [{"track": 0, "start": 0, "state": `+tt.state+`}]}`)
			if evs := Query(s, "0", 0, 4); len(evs) != 0 {
				t.Errorf("events = %v", times(evs))
			}
		})
	}
}

func TestBadDurationTerminates(t *testing.T) {
	for _, dur := range []string{`0`, `[1, -1]`, `[0, 0]`, `"x"`, `[]`, `[0.5, "a"]`} {
		t.Run(dur, func(t *testing.T) {
			s := mustParse(t, `{"changes": [{"track": 0, "start": 0, "state": {"dur": `+dur+`, "act": true, "cho": "0"}}]}`)
			if evs := Query(s, "0", 0, 100); len(evs) != 0 {
				t.Errorf("events = %v", times(evs))
			}
			_, err := Expand(Resolve(s.Changes, "0", 0), 0, 0, 100)
			if !errors.Is(err, ErrBadDuration) {
				t.Errorf("Expand err = %v", err)
			}
		})
	}
}

func TestEmptyWindow(t *testing.T) {
	s := mustParse(t, layered)
	if evs := Query(s, "0", 3, 3); evs != nil {
		t.Errorf("empty window returned %v", times(evs))
	}
	if evs := Query(nil, "0", 0, 3); evs != nil {
		t.Error("nil song returned events")
	}
}

func TestInexactPeriodsGateEvents(t *testing.T) {
	tests := []struct {
		start, every, over float64
	}{
		{0, 1.2, 0.4},
		{0, 0.6666666666666666, 0.3333333333333333},
		{1, 0.2, 0.1},
		{0.1, 0.3, 0.1},
	}
	const dur, end = 0.05, 64.0
	for _, tt := range tests {
		every, over := tt.every, tt.over
		c := song.Change{
			Track: "0",
			Start: tt.start,
			Every: &every,
			Over:  &over,
			State: map[string]song.Value{
				song.KeyDur: song.Scalar(dur),
				song.KeyAct: song.Scalar(true),
				song.KeyCho: song.Scalar("0"),
			},
		}
		s := &song.Song{BPM: song.DefaultBPM, Volume: song.DefaultVolume, Changes: []song.Change{c}}

		whole := Query(s, "0", 0, end)
		emitted := make(map[float64]bool)
		for _, e := range whole {
			emitted[e.Time] = true
			// an event up to Epsilon early belongs to the window it opens
			if !c.ActiveAt(e.Time) && !c.ActiveAt(e.Time+Epsilon) {
				t.Errorf("%+v: event at %v while the change is off", tt, e.Time)
			}
		}
		for j := 0; ; j++ {
			at := tt.start + float64(j)*dur
			if at >= end-Epsilon {
				break
			}
			if c.ActiveAt(at-Epsilon) && c.ActiveAt(at+Epsilon) && !emitted[at] {
				t.Errorf("%+v: no event at %v inside an open window", tt, at)
			}
		}

		var ticked []Event
		for clock := 0.0; clock < end; clock += 0.5 {
			ticked = append(ticked, Query(s, "0", clock, clock+0.5)...)
		}
		if !reflect.DeepEqual(ticked, whole) {
			t.Errorf("%+v: 0.5 bar windows give %d events, one query %d", tt, len(ticked), len(whole))
		}
	}
}

func TestWholeCycleShift(t *testing.T) {
	s := mustParse(t, `{"changes": [
		{"track": 0, "start": 0, "state": {"dur": [0.25, 0.5, 0.25], "act": true, "cho": ["0", "4"], "vol": [1, 0.5, 0.8, 0.2]}},
		{"track": 1, "start": 0, "every": 4, "over": 1, "state": {"dur": 0.25, "act": true, "cho": ["0", "2", "4"]}}
	]}`)

	// k whole cycles of both tracks and of every sequence they index, so
	// the far window sees the same elements. Stepping there from the
	// pattern start would take trillions of iterations.
	const k = 1.2e12
	for _, tt := range []struct {
		track    song.TrackID
		from, to float64
	}{
		{"0", 0.3, 2.7},
		{"1", 3.5, 9.5},
	} {
		base := Query(s, tt.track, tt.from, tt.to)
		far := Query(s, tt.track, k+tt.from, k+tt.to)
		if len(base) == 0 || len(far) != len(base) {
			t.Fatalf("track %s: %d events far away, %d near", tt.track, len(far), len(base))
		}
		for i := range base {
			if far[i].Time-k != base[i].Time {
				t.Errorf("track %s event %d at %v, want %v", tt.track, i, far[i].Time-k, base[i].Time)
			}
			if !reflect.DeepEqual(far[i].Params, base[i].Params) {
				t.Errorf("track %s event %d params %v, want %v", tt.track, i, far[i].Params, base[i].Params)
			}
		}
	}
}

func TestExpandTooFar(t *testing.T) {
	st := State{
		Values: map[string]song.Value{
			song.KeyDur: song.Scalar(1e-9),
			song.KeyAct: song.Scalar(true),
			song.KeyCho: song.Scalar("0"),
		},
		Since: map[string]float64{song.KeyDur: 0},
	}
	if _, err := Expand(st, 1e18, 1e18, 1e18+1); !errors.Is(err, ErrTooFar) {
		t.Errorf("err = %v, want ErrTooFar", err)
	}

	s := mustParse(t, `{"changes": [{"track": 0, "start": 0, "state": {"dur": 1e-9, "act": true, "cho": "0"}}]}`)
	if evs := Query(s, "0", 1e18, 1e18+1); len(evs) != 0 {
		t.Errorf("events = %v", times(evs))
	}
}
