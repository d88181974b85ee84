// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// Row is one timeline record flattened for display.
type Row struct {
	// Title is the milestone or span label, or the status area.
	Title string

	// When is the date, the date range, or the status value.
	When string

	// Source is the deck file name.
	Source string

	// Slide is the 1-based slide number.
	Slide int

	// Flag marks rows worth a second look, such as inverted spans.
	Flag string
}

// TimelineList displays timeline rows in a navigable list.
type TimelineList struct {
	rows     []Row
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewTimelineList creates an empty list.
func NewTimelineList(s *styles.Styles) *TimelineList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &TimelineList{styles: s, width: 80, height: 10}
}

// Init initialises the list.
func (l *TimelineList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *TimelineList) Update(msg tea.Msg) (*TimelineList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of rows around the selection.
func (l *TimelineList) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("Nothing extracted")
	}

	visible := max(l.height-2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, l.rows[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *TimelineList) renderRow(index int, r Row) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	titleWidth := max(l.width-48, 12)
	title := truncate(r.Title, titleWidth)
	where := fmt.Sprintf("%s #%d", r.Source, r.Slide)

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %-24s %s %s", indicator, titleWidth, title, r.When, where, r.Flag))
	}
	line := l.styles.Normal.Render(fmt.Sprintf("%s%-*s  %-24s ", indicator, titleWidth, title, r.When)) +
		l.styles.Muted.Render(where)
	if r.Flag != "" {
		line += " " + l.styles.Warning.Render(r.Flag)
	}
	return line
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetRows replaces the rows and resets the selection.
func (l *TimelineList) SetRows(rows []Row) {
	l.rows = rows
	l.selected = 0
}

// Rows returns the current rows.
func (l *TimelineList) Rows() []Row {
	return l.rows
}

// Selected returns the index of the selected row.
func (l *TimelineList) Selected() int {
	return l.selected
}

// SelectedRow returns the selected row, or nil when the list is empty.
func (l *TimelineList) SelectedRow() *Row {
	if l.selected < 0 || l.selected >= len(l.rows) {
		return nil
	}
	return &l.rows[l.selected]
}

// MoveUp moves selection up.
func (l *TimelineList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *TimelineList) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *TimelineList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of rows.
func (l *TimelineList) Count() int {
	return len(l.rows)
}
