package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatInput(t *testing.T) {
	in := NewChatInput(nil)

	require.NotNil(t, in)
	assert.True(t, in.Focused())
	assert.Empty(t, in.Value())
	assert.Equal(t, 60, in.Width())
}

func TestChatInput_Typing(t *testing.T) {
	in := NewChatInput(nil)

	in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("  when is beta? ")})

	assert.Equal(t, "  when is beta? ", in.Value())
	assert.Equal(t, "when is beta?", in.Question())
}

func TestChatInput_FocusAndReset(t *testing.T) {
	in := NewChatInput(nil)
	in.SetValue("draft")

	in.Blur()
	assert.False(t, in.Focused())
	in.Focus()
	assert.True(t, in.Focused())

	in.Reset()
	assert.Empty(t, in.Value())
}

func TestChatInput_SetWidth(t *testing.T) {
	in := NewChatInput(nil)

	in.SetWidth(10)
	assert.Equal(t, 10, in.Width())
	assert.Equal(t, 20, in.textinput.Width)

	in.SetWidth(100)
	assert.Equal(t, 88, in.textinput.Width)
}

func TestChatInput_View(t *testing.T) {
	in := NewChatInput(nil)

	assert.Contains(t, in.View(), "You:")
}
