// Package timeline provides the timeline browser view for the TUI.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoTimelineService indicates that no timeline service was provided.
var ErrNoTimelineService = errors.New("timeline service is required")

// View browses one timeline table at a time.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.TimelineList
	statusbar *status.Bar

	timeline driving.TimelineService
	ctx      context.Context

	kind    messages.TimelineKind
	loading bool
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a timeline view.
func NewView(s *styles.Styles, km *keymap.KeyMap, timeline driving.TimelineService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	bar := status.NewBar(s, km)
	bar.SetState(status.StateTimeline)

	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewTimelineList(s),
		statusbar: bar,
		timeline:  timeline,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current table.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// Update handles messages for the timeline view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.TimelineLoaded:
		v.handleLoaded(msg)
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	case keymap.Matches(k, v.keymap.NextKind):
		v.kind = v.kind.Next()
		return v, v.load()
	case keymap.Matches(k, v.keymap.PrevKind):
		v.kind = v.kind.Prev()
		return v, v.load()
	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.load()
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// load fetches the current kind without filters.
func (v *View) load() tea.Cmd {
	v.loading = true
	kind := v.kind
	return func() tea.Msg {
		if v.timeline == nil {
			return messages.TimelineLoaded{Kind: kind, Err: ErrNoTimelineService}
		}
		out := messages.TimelineLoaded{Kind: kind}
		switch kind {
		case messages.KindMilestones:
			out.Milestones, out.Err = v.timeline.Milestones(v.ctx, domain.TimelineFilter{})
		case messages.KindSpans:
			out.Spans, out.Err = v.timeline.Spans(v.ctx, domain.TimelineFilter{})
		case messages.KindStatuses:
			out.Statuses, out.Err = v.timeline.Statuses(v.ctx, domain.TimelineFilter{})
		}
		return out
	}
}

func (v *View) handleLoaded(msg messages.TimelineLoaded) {
	// A reply for a table the user has already left.
	if msg.Kind != v.kind {
		return
	}
	v.loading = false

	if msg.Err != nil {
		v.err = msg.Err
		v.list.SetRows(nil)
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	rows := Rows(msg)
	v.list.SetRows(rows)
	v.statusbar.SetState(status.StateTimeline)
	v.statusbar.SetMessage(fmt.Sprintf("%d %s", len(rows), msg.Kind))
}

// Rows flattens the loaded records of msg.Kind into list rows.
func Rows(msg messages.TimelineLoaded) []list.Row {
	var rows []list.Row
	switch msg.Kind {
	case messages.KindMilestones:
		for _, m := range msg.Milestones {
			rows = append(rows, list.Row{
				Title: m.Title, When: dateOrRaw(m.NormalizedDate, m.RawDate),
				Source: filepath.Base(m.SourceFile), Slide: m.Slide,
			})
		}
	case messages.KindSpans:
		for _, s := range msg.Spans {
			r := list.Row{
				Title:  s.Title,
				When:   dateOrRaw(s.StartNormalized, s.StartRaw) + " → " + dateOrRaw(s.EndNormalized, s.EndRaw),
				Source: filepath.Base(s.SourceFile), Slide: s.Slide,
			}
			if s.Inverted() {
				r.Flag = "inverted"
			}
			rows = append(rows, r)
		}
	case messages.KindStatuses:
		for _, s := range msg.Statuses {
			rows = append(rows, list.Row{
				Title: s.Area, When: s.Status,
				Source: filepath.Base(s.SourceFile), Slide: s.Slide,
			})
		}
	}
	return rows
}

func dateOrRaw(t *time.Time, raw string) string {
	if t == nil {
		return raw
	}
	return t.Format(domain.DateLayout)
}

// View renders the timeline view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	tabs := make([]string, 0, 3)
	for _, k := range []messages.TimelineKind{messages.KindMilestones, messages.KindSpans, messages.KindStatuses} {
		if k == v.kind {
			tabs = append(tabs, v.styles.Selected.Render(" "+k.String()+" "))
		} else {
			tabs = append(tabs, v.styles.Muted.Render(" "+k.String()+" "))
		}
	}

	body := v.list.View()
	if v.loading {
		body = v.styles.Muted.Render("Loading...")
	} else if v.err != nil {
		body = v.styles.Error.Render("Error: " + v.err.Error())
	}

	subtitle := "Records extracted from presentation slides"
	if row := v.list.SelectedRow(); row != nil && !v.loading && v.err == nil {
		subtitle = fmt.Sprintf("%s, slide %d", row.Source, row.Slide)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Timeline"),
		v.styles.Subtitle.Render(subtitle),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		body,
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-6)
	v.statusbar.SetWidth(width)
}

// Kind returns the table being shown.
func (v *View) Kind() messages.TimelineKind {
	return v.kind
}

// Loading reports whether a table is being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error, if any.
func (v *View) Err() error {
	return v.err
}

// List exposes the row list.
func (v *View) List() *list.TimelineList {
	return v.list
}
