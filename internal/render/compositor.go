package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync"

	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// Colors holds the compositor palette. Background and Bar are baked
// into the cached base bitmap; the rest belong to the per-frame overlay
// and can change without forcing a rebuild.
type Colors struct {
	Background color.Color
	Bar        color.Color
	Progress   color.Color
	Playhead   color.Color
	Marker     color.Color
}

// Compositor rasterizes the waveform into an RGBA backing image sized
// in device pixels. The static part (background + bars) is painted once
// and snapshotted; every frame afterwards blits the snapshot and paints
// only the moving overlay on top, so per-frame cost is O(pixels), not
// O(bars) worth of geometry work.
type Compositor struct {
	mu sync.Mutex

	logicalW int
	logicalH int
	scale    float32

	img  *image.RGBA
	base *image.RGBA // nil means the base is dirty

	peaks   []float64
	bar     int
	gap     int
	colors  Colors
	markers []Marker

	rebuilds  int
	ready     chan struct{}
	readyOnce sync.Once
	debug     bool
}

func New(width, height int, scale float32, barWidth, gap int, colors Colors, debug bool) *Compositor {
	c := &Compositor{
		bar:    barWidth,
		gap:    gap,
		colors: colors,
		ready:  make(chan struct{}),
		debug:  debug,
	}
	c.allocate(width, height, scale)
	return c
}

func (c *Compositor) allocate(width, height int, scale float32) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if scale <= 0 {
		scale = 1
	}
	c.logicalW = width
	c.logicalH = height
	c.scale = scale

	devW := int(float32(width)*scale + 0.5)
	devH := int(float32(height)*scale + 0.5)
	if devW < 1 {
		devW = 1
	}
	if devH < 1 {
		devH = 1
	}
	c.img = image.NewRGBA(image.Rect(0, 0, devW, devH))
	c.base = nil
}

// SetPeaks swaps in a new peaks array. A changed array identity
// invalidates the base cache; republishing the same slice does not.
func (c *Compositor) SetPeaks(peaks []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sameSlice(c.peaks, peaks) {
		return
	}
	c.peaks = peaks
	c.base = nil
}

// SetBarGeometry updates bar width and gap, invalidating the base when
// either changed.
func (c *Compositor) SetBarGeometry(barWidth, gap int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar == barWidth && c.gap == gap {
		return
	}
	c.bar = barWidth
	c.gap = gap
	c.base = nil
}

// SetColors replaces the palette. Only background and bar color changes
// touch the cached base; overlay colors are repainted every frame
// anyway.
func (c *Compositor) SetColors(colors Colors) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !sameColor(c.colors.Background, colors.Background) || !sameColor(c.colors.Bar, colors.Bar) {
		c.base = nil
	}
	c.colors = colors
}

// SetMarkers replaces the marker overlay. Never invalidates the base.
func (c *Compositor) SetMarkers(markers []Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers = markers
}

// Resize reallocates the backing store for a new logical size or device
// pixel ratio. The base is always dirty afterwards since the pixel
// buffer itself changed dimensions.
func (c *Compositor) Resize(width, height int, scale float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if width == c.logicalW && height == c.logicalH && scale == c.scale {
		return
	}
	c.allocate(width, height, scale)
}

// Paint composes one full frame: rebuild-or-blit the base, then the
// progress recolor, the playhead and the markers. The host calls it once
// per animation tick while playing and exactly once for a paused frame.
func (c *Compositor) Paint(state types.PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.base == nil {
		c.rebuildBase()
	} else {
		copy(c.img.Pix, c.base.Pix)
	}

	c.paintProgress(state)
	c.paintMarkers(state)
}

func (c *Compositor) rebuildBase() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.colors.Background), image.Point{}, draw.Src)

	h := float64(c.logicalH)
	step := float64(c.bar + c.gap)
	for i, pk := range c.peaks {
		barH := pk * h
		if barH < 1 {
			barH = 1 // keep a hairline so silence is still visible
		}
		c.fillRect(float64(i)*step, h-barH, float64(c.bar), barH, c.colors.Bar)
	}

	snapshot := image.NewRGBA(c.img.Bounds())
	copy(snapshot.Pix, c.img.Pix)
	c.base = snapshot
	c.rebuilds++

	if c.debug {
		log.Printf("[RENDER] Base cache rebuilt (#%d, %d bars, %dx%d device px)",
			c.rebuilds, len(c.peaks), c.img.Bounds().Dx(), c.img.Bounds().Dy())
	}

	c.readyOnce.Do(func() {
		close(c.ready)
	})
}

func (c *Compositor) paintProgress(state types.PlaybackState) {
	playedX := state.Fraction() * float64(c.logicalW)

	h := float64(c.logicalH)
	step := float64(c.bar + c.gap)
	for i, pk := range c.peaks {
		barX := float64(i) * step
		if barX >= playedX {
			break
		}

		barH := pk * h
		if barH < 1 {
			barH = 1
		}
		// The bar straddling the playhead is recolored only up to it.
		w := float64(c.bar)
		if barX+w > playedX {
			w = playedX - barX
		}
		c.fillRect(barX, h-barH, w, barH, c.colors.Progress)
	}

	if state.Duration > 0 {
		c.fillRect(playedX-0.5, 0, 1, h, c.colors.Playhead)
	}
}

func (c *Compositor) paintMarkers(state types.PlaybackState) {
	if len(c.markers) == 0 {
		return
	}

	ctx := &PaintContext{
		img:    c.img,
		scale:  c.scale,
		width:  float64(c.logicalW),
		height: float64(c.logicalH),
		colors: c.colors,
	}

	for i, m := range c.markers {
		if m.Time < 0 || m.Time > state.Duration {
			continue
		}
		x := 0.0
		if state.Duration > 0 {
			x = float64(m.Time) / float64(state.Duration) * float64(c.logicalW)
		}
		if m.Paint != nil {
			m.Paint(ctx, x, i, m)
		} else {
			defaultMarkerPaint(ctx, x, i, m)
		}
	}
}

// fillRect paints a rectangle given in logical units onto the device
// pixel backing store.
func (c *Compositor) fillRect(x, y, w, h float64, col color.Color) {
	fillRectScaled(c.img, c.scale, x, y, w, h, col)
}

// Image exposes the composed frame. The caller must treat it as
// read-only; the compositor owns the pixels.
func (c *Compositor) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}

// Rebuilds reports how many times the base cache was rebuilt. Used by
// tests to assert the cache actually gets reused.
func (c *Compositor) Rebuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuilds
}

// Ready is closed the first time a base build completes after load.
// Intended for test synchronization, not a recurring event.
func (c *Compositor) Ready() <-chan struct{} {
	return c.ready
}

// Size returns the logical dimensions.
func (c *Compositor) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logicalW, c.logicalH
}

func sameSlice(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func fillRectScaled(img *image.RGBA, scale float32, x, y, w, h float64, col color.Color) {
	s := float64(scale)
	x0 := int(x*s + 0.5)
	y0 := int(y*s + 0.5)
	x1 := int((x+w)*s + 0.5)
	y1 := int((y+h)*s + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	rect := image.Rect(x0, y0, x1, y1).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, image.NewUniform(col), image.Point{}, draw.Src)
}
