package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"termdeck/render"
	"termdeck/session"
)

// ZonePrefix namespaces the mouse zones marked by the session list.
const ZonePrefix = "deck-item-"

// List is the session sidebar. Rows are bubblezone-marked so the app can
// resolve mouse clicks to sessions.
type List struct {
	items       []*session.Instance
	selectedIdx int

	width  int
	height int

	// pool is read for the acceleration indicator only; the list never
	// acquires or releases contexts.
	pool *render.Pool
}

func NewList(pool *render.Pool) *List {
	return &List{pool: pool}
}

func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// NumItems returns the number of sessions in the list.
func (l *List) NumItems() int {
	return len(l.items)
}

// SetItems replaces the session roster, clamping the selection.
func (l *List) SetItems(items []*session.Instance) {
	l.items = items
	if l.selectedIdx >= len(items) {
		l.selectedIdx = len(items) - 1
	}
	if l.selectedIdx < 0 {
		l.selectedIdx = 0
	}
}

// Selected returns the selected session, or nil when the list is empty.
func (l *List) Selected() *session.Instance {
	if len(l.items) == 0 {
		return nil
	}
	return l.items[l.selectedIdx]
}

// SelectIndex moves the selection to idx if it is in range.
func (l *List) SelectIndex(idx int) {
	if idx >= 0 && idx < len(l.items) {
		l.selectedIdx = idx
	}
}

func (l *List) Up() {
	if l.selectedIdx > 0 {
		l.selectedIdx--
	}
}

func (l *List) Down() {
	if l.selectedIdx < len(l.items)-1 {
		l.selectedIdx++
	}
}

// String renders the sidebar.
func (l *List) String() string {
	if l.width <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(padToWidth(" Sessions", l.width)))
	b.WriteString("\n\n")

	if len(l.items) == 0 {
		b.WriteString(mutedStyle.Render(" no sessions — press n"))
		return b.String()
	}

	for idx, item := range l.items {
		b.WriteString(zone.Mark(ZonePrefix+item.Title, l.renderRow(idx, item)))
		if idx != len(l.items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (l *List) renderRow(idx int, item *session.Instance) string {
	marker := "  "
	style := titleStyle
	if idx == l.selectedIdx {
		marker = "> "
		style = selectedStyle
	}

	status := " "
	if item.Status() == session.Stopped {
		status = mutedStyle.Render("✗")
	}
	accel := " "
	if l.pool != nil && l.pool.HasContext(item.Title) {
		accel = accelStyle.Render("⚡")
	}

	// marker + status + accel + space eat four cells.
	title := truncate.StringWithTail(item.Title, uint(max(l.width-4, 4)), "…")
	row := fmt.Sprintf("%s%s%s %s", marker, status, accel, style.Render(title))

	if item.Branch != "" {
		branch := mutedStyle.Render(" " + item.Branch)
		if runewidth.StringWidth(item.Title+item.Branch)+6 <= l.width {
			row += branch
		}
	}
	return padToWidth(row, l.width)
}

var dividerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#cccccc", Dark: "#333333"})

// Divider renders a horizontal rule of the given width.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return dividerStyle.Render(strings.Repeat("─", width))
}
