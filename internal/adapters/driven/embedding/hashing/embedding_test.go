package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestEmbed_DeterministicUnitVectors(t *testing.T) {
	svc := New(64)
	a, err := svc.Embed(context.Background(), "Project Alpha kickoff in March")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "Project Alpha kickoff in March")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(a, a)), 1e-5)
}

func TestEmbed_SimilarTextScoresHigher(t *testing.T) {
	svc := New(DefaultDimensions)
	ctx := context.Background()

	q, _ := svc.Embed(ctx, "when is the alpha launch?")
	near, _ := svc.Embed(ctx, "The Alpha launch is planned for June.")
	far, _ := svc.Embed(ctx, "Quarterly budget spreadsheet for facilities")

	assert.Greater(t, cosine(q, near), cosine(q, far))
}

func TestEmbed_EmptyTextIsZero(t *testing.T) {
	v, err := New(8).Embed(context.Background(), "  ...  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbedBatch(t *testing.T) {
	svc := New(16)
	vecs, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	one, _ := svc.Embed(context.Background(), "one")
	assert.Equal(t, one, vecs[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.EmbedBatch(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromSettings(t *testing.T) {
	svc := FromSettings(&domain.EmbeddingSettings{Model: "hashing-v2", Dimensions: 32})
	assert.Equal(t, "hashing-v2", svc.ModelName())
	assert.Equal(t, 32, svc.Dimensions())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())

	assert.Equal(t, DefaultDimensions, New(0).Dimensions())
}
