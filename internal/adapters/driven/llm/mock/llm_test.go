package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestGenerate_EchoesPrompt(t *testing.T) {
	svc := NewLLMService()

	out, err := svc.Generate(context.Background(), "hello", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "MOCK RESPONSE: hello", out)

	long := strings.Repeat("é", 1000)
	out, err = svc.Generate(context.Background(), long, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, Prefix+strings.Repeat("é", 400), out)
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLLMService().Generate(ctx, "x", driven.GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
