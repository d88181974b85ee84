package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrMalformedShape", ErrMalformedShape},
		{"ErrIndexNotFound", ErrIndexNotFound},
		{"ErrIndexStale", ErrIndexStale},
		{"ErrRebuildInProgress", ErrRebuildInProgress},
		{"ErrEmbeddingFailed", ErrEmbeddingFailed},
		{"ErrRetrievalFailed", ErrRetrievalFailed},
		{"ErrGenerationFailed", ErrGenerationFailed},
		{"ErrGenerationTimeout", ErrGenerationTimeout},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrMalformedResponse", ErrMalformedResponse},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_GenerationFailuresAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrGenerationTimeout, ErrGenerationFailed))
	assert.False(t, errors.Is(ErrRetrievalFailed, ErrGenerationFailed))
	assert.False(t, errors.Is(ErrEmbeddingFailed, ErrRetrievalFailed))
}

func TestMalformedShapeError(t *testing.T) {
	var err error = &MalformedShapeError{Slide: 3, ShapeID: "sp7", Reason: "negative width"}

	assert.Equal(t, `malformed shape "sp7" on slide 3: negative width`, err.Error())
	assert.ErrorIs(t, err, ErrMalformedShape)

	wrapped := fmt.Errorf("extract deck: %w", err)
	var mse *MalformedShapeError
	require.ErrorAs(t, wrapped, &mse)
	assert.Equal(t, 3, mse.Slide)
	assert.Equal(t, "sp7", mse.ShapeID)
}
