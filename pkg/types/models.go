package types

import (
	"time"
)

// Geometry describes how decoded samples map onto visual bars.
type Geometry struct {
	Width    int
	BarWidth int
	Gap      int
}

// SlotCount reports how many bars fit into the geometry. It is never
// below 1, even for degenerate widths, so downstream division is safe.
func (g Geometry) SlotCount() int {
	step := g.BarWidth + g.Gap
	if step <= 0 {
		return 1
	}
	count := g.Width / step
	if count < 1 {
		count = 1
	}
	return count
}

// PlaybackState is the transport clock the renderer consumes. It is
// supplied continuously by the player and never mutated by consumers.
type PlaybackState struct {
	Position time.Duration
	Duration time.Duration
	Playing  bool
}

// Fraction returns playback progress in [0, 1].
func (s PlaybackState) Fraction() float64 {
	if s.Duration <= 0 {
		return 0
	}
	f := float64(s.Position) / float64(s.Duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Marker is a user annotation pinned to a point in the audio.
type Marker struct {
	ID     int64         `db:"id"`
	Source string        `db:"source"`
	Time   time.Duration `db:"time_ns"`
	Label  string        `db:"label"`

	CreatedAt time.Time `db:"created_at"`
}

// Track is an entry in the recently-opened library.
type Track struct {
	Source string        `db:"source"`
	Name   string        `db:"name"`
	Length time.Duration `db:"length_ns"`
	Played int           `db:"played"`

	LastOpened time.Time `db:"last_opened"`
	CreatedAt  time.Time `db:"created_at"`
}
