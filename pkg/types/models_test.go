package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotCount(t *testing.T) {
	tests := []struct {
		name string
		geom Geometry
		want int
	}{
		{"typical", Geometry{Width: 300, BarWidth: 2, Gap: 1}, 100},
		{"uneven division", Geometry{Width: 100, BarWidth: 2, Gap: 1}, 33},
		{"no gap", Geometry{Width: 100, BarWidth: 1, Gap: 0}, 100},
		{"zero width", Geometry{Width: 0, BarWidth: 2, Gap: 1}, 1},
		{"negative width", Geometry{Width: -10, BarWidth: 2, Gap: 1}, 1},
		{"narrower than one bar", Geometry{Width: 2, BarWidth: 2, Gap: 1}, 1},
		{"zero step", Geometry{Width: 100, BarWidth: 0, Gap: 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.geom.SlotCount())
		})
	}
}

func TestFraction(t *testing.T) {
	assert.Zero(t, PlaybackState{}.Fraction())
	assert.Zero(t, PlaybackState{Position: time.Second}.Fraction())

	s := PlaybackState{Position: 3 * time.Second, Duration: 12 * time.Second}
	assert.InDelta(t, 0.25, s.Fraction(), 1e-9)

	past := PlaybackState{Position: 15 * time.Second, Duration: 12 * time.Second}
	assert.Equal(t, 1.0, past.Fraction())

	negative := PlaybackState{Position: -time.Second, Duration: 12 * time.Second}
	assert.Zero(t, negative.Fraction())
}
