package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestNormaliser_Basics(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/plain")
	assert.Equal(t, 5, n.Priority())

	_, err := n.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     string
		sections int
	}{
		{"plain", "hello world", "hello world", 1},
		{"crlf folded", "a\r\nb", "a\nb", 1},
		{"bom stripped", "\ufefftext", "text", 1},
		{"invalid utf8 replaced", "ok\xffok", "ok\ufffdok", 1},
		{"blank has no sections", "  \n\t", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Normalise(context.Background(), &domain.RawDocument{
				URI: "/docs/notes_2024.txt", MIMEType: "text/plain", Content: []byte(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Document.Content)
			assert.Len(t, res.Document.Sections, tt.sections)
			assert.Equal(t, "notes 2024", res.Document.Title)
		})
	}
}

func TestNormalise_TitleFromMetadata(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI: "/docs/x.txt", Content: []byte("x"), Metadata: map[string]any{"title": "Custom"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom", res.Document.Title)
}
