package types

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
)

// Storage persists markers and the recents library. Computed waveform
// peaks are deliberately not stored; they are recomputed per session.
type Storage interface {
	SaveTrack(ctx context.Context, track *Track) error
	GetTracks(ctx context.Context, limit int) ([]*Track, error)
	SaveMarker(ctx context.Context, marker *Marker) error
	GetMarkers(ctx context.Context, source string) ([]*Marker, error)
	DeleteMarker(ctx context.Context, id int64) error
	Close() error
}

// Transport is the media playback sink the waveform region talks to.
// The waveform only needs a clock, a duration and a seek target; it
// never owns the playback stream itself.
type Transport interface {
	Resume() error
	Pause() error
	Seek(position time.Duration) error
	SetVolume(volume float64) error
	Position() time.Duration
	Duration() time.Duration
	IsPlaying() bool
}

// View is implemented by top level UI sections.
type View interface {
	Container() *fyne.Container
	Refresh()
}
