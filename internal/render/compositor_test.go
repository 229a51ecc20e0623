package render

import (
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

var testColors = Colors{
	Background: color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff},
	Bar:        color.NRGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff},
	Progress:   color.NRGBA{R: 0xff, G: 0x60, B: 0x00, A: 0xff},
	Playhead:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	Marker:     color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff},
}

func pausedAt(pos, dur time.Duration) types.PlaybackState {
	return types.PlaybackState{Position: pos, Duration: dur}
}

func TestPaintReusesBaseAcrossFrames(t *testing.T) {
	c := New(120, 60, 1, 2, 1, testColors, false)
	c.SetPeaks([]float64{0.2, 0.9, 0.5, 0.7})

	// A playing animation paints many frames; only the first one builds
	// the base, the rest blit it.
	for i := 0; i < 30; i++ {
		c.Paint(pausedAt(time.Duration(i)*100*time.Millisecond, 10*time.Second))
	}
	assert.Equal(t, 1, c.Rebuilds())
}

func TestSetPeaksInvalidatesOnNewArrayOnly(t *testing.T) {
	c := New(120, 60, 1, 2, 1, testColors, false)

	peaks := []float64{0.3, 0.6}
	c.SetPeaks(peaks)
	c.Paint(pausedAt(0, time.Second))
	require.Equal(t, 1, c.Rebuilds())

	// Republishing the identical slice is the steady-state path during
	// playback and must not rebuild.
	c.SetPeaks(peaks)
	c.Paint(pausedAt(time.Second/2, time.Second))
	assert.Equal(t, 1, c.Rebuilds())

	refined := []float64{0.4, 0.8}
	c.SetPeaks(refined)
	c.Paint(pausedAt(time.Second/2, time.Second))
	assert.Equal(t, 2, c.Rebuilds())
}

func TestOverlayChangesDoNotInvalidate(t *testing.T) {
	c := New(120, 60, 1, 2, 1, testColors, false)
	c.SetPeaks([]float64{0.5})
	c.Paint(pausedAt(0, time.Second))
	require.Equal(t, 1, c.Rebuilds())

	c.SetMarkers([]Marker{{Time: time.Second / 2}})
	overlay := testColors
	overlay.Progress = color.NRGBA{R: 0x80, A: 0xff}
	overlay.Playhead = color.NRGBA{G: 0x80, A: 0xff}
	c.SetColors(overlay)
	c.Paint(pausedAt(time.Second/4, time.Second))

	assert.Equal(t, 1, c.Rebuilds())

	// Base palette changes do rebuild.
	rebased := overlay
	rebased.Background = color.NRGBA{B: 0x30, A: 0xff}
	c.SetColors(rebased)
	c.Paint(pausedAt(time.Second/4, time.Second))
	assert.Equal(t, 2, c.Rebuilds())
}

func TestBarGeometryChangeInvalidates(t *testing.T) {
	c := New(120, 60, 1, 2, 1, testColors, false)
	c.SetPeaks([]float64{0.5, 0.5})
	c.Paint(pausedAt(0, time.Second))
	require.Equal(t, 1, c.Rebuilds())

	c.SetBarGeometry(2, 1) // unchanged
	c.Paint(pausedAt(0, time.Second))
	assert.Equal(t, 1, c.Rebuilds())

	c.SetBarGeometry(3, 1)
	c.Paint(pausedAt(0, time.Second))
	assert.Equal(t, 2, c.Rebuilds())
}

func TestResizeAllocatesDevicePixels(t *testing.T) {
	c := New(100, 50, 2, 2, 1, testColors, false)

	img := c.Image()
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	c.SetPeaks([]float64{0.5})
	c.Paint(pausedAt(0, time.Second))
	require.Equal(t, 1, c.Rebuilds())

	c.Resize(300, 50, 2)
	img = c.Image()
	assert.Equal(t, 600, img.Bounds().Dx())

	c.Paint(pausedAt(0, time.Second))
	assert.Equal(t, 2, c.Rebuilds())

	// Same dimensions and scale: a no-op, base survives.
	c.Resize(300, 50, 2)
	c.Paint(pausedAt(0, time.Second))
	assert.Equal(t, 2, c.Rebuilds())

	w, h := c.Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 50, h)
}

func TestPaintBaseAndProgressPixels(t *testing.T) {
	c := New(10, 10, 1, 1, 0, testColors, false)
	c.SetPeaks([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	c.Paint(pausedAt(time.Second/2, time.Second))
	img := c.Image()

	// Full-height bars everywhere: left of the playhead is progress
	// colored, right of it keeps the bar color.
	assert.True(t, sameColor(testColors.Progress, img.At(1, 5)))
	assert.True(t, sameColor(testColors.Bar, img.At(8, 5)))
}

func TestPaintWithoutDurationSkipsPlayhead(t *testing.T) {
	c := New(10, 10, 1, 1, 0, testColors, false)
	c.SetPeaks(make([]float64, 10))

	c.Paint(types.PlaybackState{})
	img := c.Image()

	// No source loaded: background plus silence hairlines, no playhead.
	assert.True(t, sameColor(testColors.Background, img.At(0, 0)))
	for y := 0; y < 9; y++ {
		assert.False(t, sameColor(testColors.Playhead, img.At(0, y)), "y=%d", y)
	}
}

type markerCall struct {
	x     float64
	index int
}

func TestMarkersOutsideDurationAreSkipped(t *testing.T) {
	c := New(200, 60, 1, 2, 1, testColors, false)
	c.SetPeaks([]float64{0.5})

	var mu sync.Mutex
	var calls []markerCall
	record := func(_ *PaintContext, x float64, index int, _ Marker) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, markerCall{x: x, index: index})
	}

	c.SetMarkers([]Marker{
		{Time: -time.Second, Paint: record},    // before the track
		{Time: time.Second, Paint: record},     // in range
		{Time: 3 * time.Second, Paint: record}, // in range, at the end
		{Time: 5 * time.Second, Paint: record}, // past the track
	})

	c.Paint(pausedAt(0, 3*time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[0].index)
	assert.InDelta(t, 200.0/3, calls[0].x, 0.01)
	assert.Equal(t, 2, calls[1].index)
	assert.InDelta(t, 200.0, calls[1].x, 0.01)
}

func TestReadyClosesAfterFirstBuild(t *testing.T) {
	c := New(100, 40, 1, 2, 1, testColors, false)

	select {
	case <-c.Ready():
		t.Fatal("ready before any paint")
	default:
	}

	c.SetPeaks([]float64{0.5})
	c.Paint(pausedAt(0, time.Second))

	select {
	case <-c.Ready():
	default:
		t.Fatal("ready not closed after first base build")
	}
}
