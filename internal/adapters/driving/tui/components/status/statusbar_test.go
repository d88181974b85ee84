package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
	assert.Contains(t, bar.View(), "Ready")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{"thinking", StateThinking, "", "Thinking..."},
		{"error with message", StateError, "boom", "Error: boom"},
		{"error without message", StateError, "", "Error"},
		{"help", StateHelp, "", "Help"},
		{"timeline", StateTimeline, "3 milestones", "3 milestones"},
		{"ready message", StateReady, "Copied", "Copied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_IndexInfo(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	bar.SetIndexInfo(true, 42, "nomic-embed-text")
	assert.Equal(t, "42 chunks indexed · nomic-embed-text", bar.IndexInfo())
	assert.Contains(t, bar.View(), "42 chunks indexed")

	bar.SetIndexInfo(false, 0, "")
	assert.Equal(t, "No index loaded", bar.IndexInfo())
	assert.Contains(t, bar.View(), "No index loaded")
}

func TestBar_HintsFollowState(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)

	assert.Contains(t, bar.View(), "enter: ask")

	bar.SetState(StateTimeline)
	assert.Contains(t, bar.View(), "next table")
}

func TestBar_ClearKeepsIndexInfo(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetIndexInfo(true, 1, "")
	bar.SetState(StateError)
	bar.SetMessage("x")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, "1 chunks indexed", bar.IndexInfo())
}
