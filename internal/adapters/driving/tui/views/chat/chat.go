// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// maxHistory bounds the turns carried between questions.
const maxHistory = 20

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
	entryError
)

// entry is one block of the transcript.
type entry struct {
	kind    entryKind
	text    string
	sources []domain.Source
}

// View is the chat transcript with an input line and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.ChatInput
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	query driving.QueryService
	ctx   context.Context

	transcript []entry
	history    []domain.Turn
	thinking   bool
	err        error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view over the query service.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Assistant

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewChatInput(s),
		viewport:  viewport.New(80, 16),
		spinner:   sp,
		statusbar: status.NewBar(s, km),
		query:     query,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
	v.refresh()
	return v
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.IndexStatusLoaded:
		v.statusbar.SetIndexInfo(msg.Ready, msg.Chunks, msg.Model)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.ScrollUp), keymap.Matches(msg.String(), v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(msg.String(), v.keymap.Submit):
		question := v.input.Question()
		if question == "" || v.thinking {
			return v, nil
		}
		v.input.Reset()
		return v, v.Ask(question)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// Ask records the question and starts answering it in the background.
func (v *View) Ask(question string) tea.Cmd {
	v.transcript = append(v.transcript, entry{kind: entryUser, text: question})
	v.thinking = true
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.answer(question, append([]domain.Turn(nil), v.history...)))
}

func (v *View) answer(question string, history []domain.Turn) tea.Cmd {
	return func() tea.Msg {
		if v.query == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoQueryService}
		}
		ans, err := v.query.Answer(v.ctx, question, history)
		return messages.AnswerReceived{Question: question, Answer: ans, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	defer v.refresh()

	if msg.Err != nil {
		v.err = msg.Err
		v.transcript = append(v.transcript, entry{kind: entryError, text: describeError(msg.Err)})
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.statusbar.Clear()
	kind := entryAssistant
	if msg.Answer.NoSources {
		kind = entryNotice
	}
	v.transcript = append(v.transcript, entry{kind: kind, text: msg.Answer.Text, sources: msg.Answer.Sources})

	v.history = append(v.history,
		domain.Turn{Role: domain.TurnUser, Content: msg.Question},
		domain.Turn{Role: domain.TurnAssistant, Content: msg.Answer.Format()},
	)
	if len(v.history) > maxHistory {
		v.history = v.history[len(v.history)-maxHistory:]
	}
}

// describeError turns a query failure into a line for the transcript.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "The model took too long to answer. Try again, or raise llm.timeout."
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, domain.ErrIndexStale):
		return "No usable index. Run `docqa index` first."
	case errors.Is(err, domain.ErrRateLimited):
		return "The model provider is rate limiting requests. Wait a moment and try again."
	case errors.Is(err, domain.ErrInvalidInput):
		return "That question could not be used: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 && !v.thinking {
		return v.styles.Muted.Render("Ask anything about the indexed documents.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.transcript)+1)
	for _, e := range v.transcript {
		var b strings.Builder
		switch e.kind {
		case entryUser:
			b.WriteString(v.styles.User.Render("You: "))
			b.WriteString(wrap.Render(e.text))
		case entryAssistant:
			b.WriteString(v.styles.Assistant.Render("docqa: "))
			b.WriteString(wrap.Render(e.text))
		case entryNotice:
			b.WriteString(v.styles.Assistant.Render("docqa: "))
			b.WriteString(v.styles.Notice.Render(wrap.Render(e.text)))
		case entryError:
			b.WriteString(v.styles.Error.Render(wrap.Render(e.text)))
		}
		if len(e.sources) > 0 {
			b.WriteString("\n" + v.styles.Source.Render("Sources:"))
			for _, src := range e.sources {
				b.WriteString("\n" + v.styles.Source.Render("- "+src.String()))
			}
		}
		blocks = append(blocks, b.String())
	}
	if v.thinking {
		blocks = append(blocks, v.spinner.View()+" "+v.styles.Muted.Render("Thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("docqa")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		v.styles.Border.Width(max(v.width-2, 10)).Render(v.viewport.View()),
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript to fill the space above the input.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = max(width-4, 10)
	// Header, viewport border, bordered input and status bar.
	v.viewport.Height = max(height-8, 3)
	v.refresh()
}

// Ready returns whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Thinking reports whether a question is being answered.
func (v *View) Thinking() bool {
	return v.thinking
}

// History returns the turns sent with the next question.
func (v *View) History() []domain.Turn {
	return v.history
}

// Transcript returns the transcript as plain text, for tests and export.
func (v *View) Transcript() string {
	var b strings.Builder
	for i, e := range v.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch e.kind {
		case entryUser:
			b.WriteString("You: " + e.text)
		case entryAssistant, entryNotice:
			b.WriteString("docqa: " + domain.Answer{Text: e.text, Sources: e.sources}.Format())
		case entryError:
			b.WriteString(e.text)
		}
	}
	return b.String()
}

// Err returns the last query error, if any.
func (v *View) Err() error {
	return v.err
}

// StatusBar exposes the status bar for index updates.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}
