package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func box(id string, x, y, w, h float64) domain.Shape {
	return domain.Shape{ID: id, Slide: 1, X: x, Y: y, Width: w, Height: h}
}

func TestOverlaps(t *testing.T) {
	a := box("a", 0, 0, 10, 10)

	tests := []struct {
		name     string
		b        domain.Shape
		fraction float64
		want     bool
	}{
		{"identical", box("b", 0, 0, 10, 10), 0.1, true},
		{"touching edge", box("b", 10, 0, 10, 10), 0, false},
		{"disjoint", box("b", 20, 20, 5, 5), 0, false},
		{"small corner overlap under threshold", box("b", 9, 9, 10, 10), 0.05, false},
		{"small corner overlap over zero", box("b", 9, 9, 10, 10), 0, true},
		{"contained", box("b", 2, 2, 2, 2), 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(a, tt.b, tt.fraction))
			assert.Equal(t, tt.want, Overlaps(tt.b, a, tt.fraction), "symmetric")
		})
	}
}

func TestGaps(t *testing.T) {
	a := box("a", 0, 0, 10, 10)

	assert.Equal(t, 5.0, VerticalGap(a, box("b", 0, 15, 10, 10)))
	assert.Equal(t, -5.0, VerticalGap(a, box("b", 0, 5, 10, 10)))
	assert.Equal(t, 3.0, HorizontalGap(a, box("b", 13, 0, 10, 10)))
	assert.Equal(t, -2.0, HorizontalGap(a, box("b", 8, 0, 10, 10)))
}

func TestOverlapFractions(t *testing.T) {
	a := box("a", 0, 0, 10, 10)

	assert.Equal(t, 1.0, HorizontalOverlapFraction(a, box("b", 2, 50, 4, 1)))
	assert.Equal(t, 0.5, HorizontalOverlapFraction(a, box("b", 5, 50, 10, 1)))
	assert.Equal(t, 0.0, HorizontalOverlapFraction(a, box("b", 20, 0, 10, 1)))
	assert.Equal(t, 0.5, VerticalOverlapFraction(a, box("b", 50, 5, 1, 10)))
}

func TestIsAbove(t *testing.T) {
	date := box("d", 0, 0, 10, 4)
	label := box("l", 0, 6, 10, 4)
	offside := box("o", 40, 6, 10, 4)

	assert.True(t, IsAbove(date, label, 1, 0.5))
	assert.False(t, IsAbove(label, date, 1, 0.5))
	assert.False(t, IsAbove(date, label, 10, 0.5), "within tolerance")
	assert.False(t, IsAbove(date, offside, 1, 0.5), "no shared horizontal extent")
}

func TestNearestBelow(t *testing.T) {
	date := box("d", 0, 0, 10, 4)

	t.Run("smallest gap wins", func(t *testing.T) {
		got, ok := NearestBelow(date, []domain.Shape{
			box("far", 0, 20, 10, 4),
			box("near", 0, 6, 10, 4),
		}, 0.3, 50)
		require.True(t, ok)
		assert.Equal(t, "near", got.ID)
	})

	t.Run("shapes above and overlapping are ignored", func(t *testing.T) {
		_, ok := NearestBelow(date, []domain.Shape{
			box("above", 0, -10, 10, 4),
			box("overlap", 0, 2, 10, 4),
		}, 0.3, 50)
		assert.False(t, ok)
	})

	t.Run("horizontal overlap threshold", func(t *testing.T) {
		_, ok := NearestBelow(date, []domain.Shape{box("side", 9, 6, 10, 4)}, 0.3, 50)
		assert.False(t, ok)
	})

	t.Run("max gap", func(t *testing.T) {
		_, ok := NearestBelow(date, []domain.Shape{box("far", 0, 40, 10, 4)}, 0.3, 10)
		assert.False(t, ok)
	})

	t.Run("tie prefers greater overlap then smaller x", func(t *testing.T) {
		got, ok := NearestBelow(date, []domain.Shape{
			box("partial", 5, 6, 10, 4),
			box("full", 0, 6, 10, 4),
		}, 0.3, 50)
		require.True(t, ok)
		assert.Equal(t, "full", got.ID)

		wide := box("d", 0, 0, 40, 4)
		got, ok = NearestBelow(wide, []domain.Shape{
			box("right", 20, 6, 10, 4),
			box("left", 2, 6, 10, 4),
		}, 0.3, 50)
		require.True(t, ok)
		assert.Equal(t, "left", got.ID)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := NearestBelow(date, nil, 0.3, 50)
		assert.False(t, ok)
	})
}

func TestContains(t *testing.T) {
	outer := box("o", 0, 0, 10, 10)
	assert.True(t, Contains(outer, box("i", 1, 1, 2, 2)))
	assert.False(t, Contains(outer, box("i", 9, 9, 2, 2)))
}

func TestReadingOrder(t *testing.T) {
	in := []domain.Shape{box("c", 0, 10, 1, 1), box("b", 5, 0, 1, 1), box("a", 0, 0, 1, 1)}
	out := ReadingOrder(in)

	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "c", in[0].ID, "input untouched")
}

func TestExtent(t *testing.T) {
	w, h := Extent([]domain.Shape{box("a", 0, 0, 10, 5), box("b", 20, 30, 5, 5)})
	assert.Equal(t, 25.0, w)
	assert.Equal(t, 35.0, h)
}
