package minlength

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestProcessor_DropsShortChunks(t *testing.T) {
	p := New(4)
	in := []domain.Chunk{
		{ID: "a", Content: "hello world", Offset: 0, Position: 0},
		{ID: "b", Content: "  ok  ", Offset: 12, Position: 1},
		{ID: "c", Content: "\n\n", Offset: 20, Position: 2},
		{ID: "d", Content: "more text", Offset: 30, Position: 3},
	}

	out, err := p.Process(context.Background(), &domain.Document{}, in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "d", out[1].ID)
	assert.Equal(t, 1, out[1].Position)
	assert.Equal(t, 30, out[1].Offset)
	assert.Equal(t, 3, in[3].Position, "input slice is not modified")
}

func TestNew_ClampsMinimum(t *testing.T) {
	p := New(0)
	assert.Equal(t, DefaultMinChars, p.minChars)
	assert.Equal(t, "minlength", p.Name())

	out, err := p.Process(context.Background(), nil, []domain.Chunk{{Content: " "}, {Content: "x"}})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
