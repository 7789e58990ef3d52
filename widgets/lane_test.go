package widgets

import (
	"strings"
	"testing"

	"go-jamtyper/theme"
)

func TestLaneCells(t *testing.T) {
	l := Lane{
		From: 0,
		To:   2,
		Hits: []Hit{
			{Time: 0, Notes: 1},
			{Time: 0.25, Notes: 3},
			{Time: 1.99, Notes: 0},
			{Time: 2, Notes: 1},  // outside
			{Time: -1, Notes: 1}, // outside
		},
	}
	got := l.Cells(8)
	want := []int{1, 3, 0, 0, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cells = %v, want %v", got, want)
		}
	}
	if cells := (Lane{From: 1, To: 1}).Cells(4); len(cells) != 4 || cells[0] != 0 {
		t.Errorf("empty span cells = %v", cells)
	}
}

func TestLanePlayhead(t *testing.T) {
	tests := []struct {
		playhead float64
		want     int
	}{
		{0, 0},
		{1, 4},
		{1.99, 7},
		{2, -1},
		{-0.5, -1},
	}
	for _, tt := range tests {
		l := Lane{From: 0, To: 2, Playhead: tt.playhead}
		if got := l.PlayheadColumn(8); got != tt.want {
			t.Errorf("PlayheadColumn(%v) = %d, want %d", tt.playhead, got, tt.want)
		}
	}
}

func TestRenderLane(t *testing.T) {
	th := theme.New(nil)
	l := Lane{Label: "drums-long-name", From: 0, To: 1, Playhead: 0.5, Hits: []Hit{{Time: 0, Notes: 1}, {Time: 0.25, Notes: 2}}}
	out := RenderLane(th, l, 5, 4)
	for _, want := range []string{"drums", "●", "◆", "▶"} {
		if !strings.Contains(out, want) {
			t.Errorf("lane %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "drums-") {
		t.Error("label not truncated")
	}

	l.Muted = true
	if out := RenderLane(th, l, 5, 4); !strings.Contains(out, "×") {
		t.Errorf("muted lane %q", out)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Transport", Keys: []KeyBinding{{"space", "play/pause"}}}})
	if !strings.Contains(out, "Transport") || !strings.Contains(out, "space") {
		t.Errorf("help = %q", out)
	}
}
