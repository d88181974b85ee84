package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func update(app *App, msg tea.Msg) (*App, tea.Cmd) {
	m, cmd := app.Update(msg)
	return m.(*App), cmd
}

// drain runs cmd and feeds every produced message back into the app.
func drain(app *App, cmd tea.Cmd) *App {
	if cmd == nil {
		return app
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			app = drain(app, c)
		}
	case nil:
	default:
		app, cmd = update(app, msg)
		// Spinner ticks re-arm forever; stop after one round.
		if _, ok := msg.(messages.AnswerReceived); ok {
			return drain(app, cmd)
		}
	}
	return app
}

func TestNewApp_RequiresQuery(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingQueryService)
}

func TestApp_StartsInChat(t *testing.T) {
	app, err := NewApp(&Ports{Query: &MockQueryService{}})
	require.NoError(t, err)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())

	app.SetDimensions(80, 24)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "docqa")
}

func TestApp_AskRoundTrip(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}})

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("What is docqa?")})
	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyEnter})
	app = drain(app, cmd)

	assert.Contains(t, app.ChatView().Transcript(), "docqa: answer to What is docqa?")
	assert.Len(t, app.ChatView().History(), 2)
}

func TestApp_TimelineToggle(t *testing.T) {
	tl := &MockTimelineService{}
	app := newTestApp(t, &Ports{Query: &MockQueryService{}, Timeline: tl})

	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ViewTimeline, app.CurrentView())
	app = drain(app, cmd)
	assert.Equal(t, 1, tl.Calls)
	assert.Contains(t, app.View(), "Beta")

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_TimelineEscReturnsToChat(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}, Timeline: &MockTimelineService{}})
	app, _ = update(app, messages.ViewChanged{View: messages.ViewTimeline})

	app, cmd := update(app, tea.KeyMsg{Type: tea.KeyEsc})
	app = drain(app, cmd)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_TabWithoutTimelineStaysInChat(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}})

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.ViewChat, app.CurrentView())

	app, cmd := update(app, messages.ViewChanged{View: messages.ViewTimeline})
	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}})

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyF1})
	require.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "next table")

	app, _ = update(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_QuitKeys(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}})

	_, cmd := update(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = update(app, messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_IndexStatusInStatusBar(t *testing.T) {
	idx := &MockIndexService{StatusValue: driving.IndexStatus{Ready: true, Chunks: 7, EmbeddingModel: "hashing-256"}}
	app := newTestApp(t, &Ports{Query: &MockQueryService{}, Index: idx})

	app = drain(app, app.indexStatus())

	assert.Equal(t, "7 chunks indexed · hashing-256", app.ChatView().StatusBar().IndexInfo())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &Ports{Query: &MockQueryService{}})

	app, _ = update(app, messages.ErrorOccurred{Err: context.DeadlineExceeded})

	assert.ErrorIs(t, app.Err(), context.DeadlineExceeded)
}
