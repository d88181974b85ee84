package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShape_Edges(t *testing.T) {
	s := Shape{X: 10, Y: 20, Width: 30, Height: 40}

	assert.Equal(t, 10.0, s.Left())
	assert.Equal(t, 40.0, s.Right())
	assert.Equal(t, 20.0, s.Top())
	assert.Equal(t, 60.0, s.Bottom())
	assert.Equal(t, 25.0, s.CenterX())
	assert.Equal(t, 40.0, s.CenterY())
	assert.Equal(t, 1200.0, s.Area())
}

func TestShape_HasText(t *testing.T) {
	assert.False(t, Shape{}.HasText())
	assert.False(t, Shape{Text: " \n\t"}.HasText())
	assert.True(t, Shape{Text: "May 17"}.HasText())
}

func TestShape_Validate(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		wantErr bool
	}{
		{"valid", Shape{X: 1, Y: 1, Width: 1, Height: 1}, false},
		{"zero size is allowed", Shape{}, false},
		{"NaN x", Shape{X: math.NaN()}, true},
		{"infinite height", Shape{Height: math.Inf(1)}, true},
		{"negative width", Shape{Width: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedShape)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "UNKNOWN", RoleUnknown.String())
	assert.Equal(t, "DATE", RoleDate.String())
	assert.Equal(t, "MILESTONE_LABEL", RoleMilestoneLabel.String())
	assert.Equal(t, "SPAN_LABEL", RoleSpanLabel.String())
	assert.Equal(t, "UNKNOWN", Role(42).String())
}

func TestRole_IsLabel(t *testing.T) {
	assert.True(t, RoleMilestoneLabel.IsLabel())
	assert.True(t, RoleSpanLabel.IsLabel())
	assert.False(t, RoleDate.IsLabel())
	assert.False(t, RoleUnknown.IsLabel())
}
