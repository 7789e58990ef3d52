package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-jamtyper/theme"
)

// Hit is one dispatched event as the lane sees it
type Hit struct {
	Time  float64 // bars
	Notes int
}

// Lane is a horizontal strip of cells covering [From, To) bars
type Lane struct {
	Label    string
	Hits     []Hit
	From, To float64
	Playhead float64
	Muted    bool
	Color    lipgloss.Color
}

// Cells buckets hits into width columns. A cell holds the number of notes
// that fell into it.
func (l Lane) Cells(width int) []int {
	cells := make([]int, width)
	span := l.To - l.From
	if width <= 0 || !(span > 0) {
		return cells
	}
	for _, h := range l.Hits {
		if h.Time < l.From || h.Time >= l.To {
			continue
		}
		col := int((h.Time - l.From) / span * float64(width))
		if col >= width {
			col = width - 1
		}
		n := h.Notes
		if n < 1 {
			n = 1
		}
		cells[col] += n
	}
	return cells
}

// PlayheadColumn is the column holding the playhead, -1 when outside
func (l Lane) PlayheadColumn(width int) int {
	span := l.To - l.From
	if width <= 0 || !(span > 0) || l.Playhead < l.From || l.Playhead >= l.To {
		return -1
	}
	return int(math.Floor((l.Playhead - l.From) / span * float64(width)))
}

// RenderLane draws the label followed by width cells
func RenderLane(th *theme.Theme, l Lane, labelWidth, width int) string {
	sym := th.Symbols
	label := l.Label
	if len(label) > labelWidth {
		label = label[:labelWidth]
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth + 1).Foreground(l.Color)
	hitStyle := lipgloss.NewStyle().Foreground(l.Color)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	headStyle := lipgloss.NewStyle().Foreground(th.Cursor())

	if l.Muted {
		labelStyle = labelStyle.Foreground(th.Muted())
		hitStyle = dimStyle
	}

	var out strings.Builder
	out.WriteString(labelStyle.Render(label))
	head := l.PlayheadColumn(width)
	for i, n := range l.Cells(width) {
		switch {
		case i == head && n == 0:
			out.WriteString(headStyle.Render(string(sym.LanePlayhead)))
		case n == 0:
			out.WriteString(dimStyle.Render(string(sym.LaneEmpty)))
		case l.Muted:
			out.WriteString(hitStyle.Render(string(sym.LaneMuted)))
		case n > 1:
			out.WriteString(hitStyle.Render(string(sym.LaneChord)))
		default:
			out.WriteString(hitStyle.Render(string(sym.LaneHit)))
		}
	}
	return out.String()
}
