package render

import (
	"image"
	"image/color"
	"strconv"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Marker is one annotation on the waveform. A marker is painted only
// when its time lies within [0, duration]; its x position is derived
// from the playback duration at paint time.
type Marker struct {
	Time  time.Duration
	Label string
	// Paint overrides the default line-and-label rendering. Nil uses
	// the default.
	Paint MarkerPaint
}

// MarkerPaint is a custom marker renderer. x is the marker position in
// logical units; index is the marker's position in the supplied order,
// which is also the paint order (later markers end up on top).
type MarkerPaint func(ctx *PaintContext, x float64, index int, m Marker)

// PaintContext is the drawing surface handed to marker painters. All
// coordinates are logical units; the context applies the device pixel
// scale itself.
type PaintContext struct {
	img    *image.RGBA
	scale  float32
	width  float64
	height float64
	colors Colors
}

// Size returns the logical canvas dimensions.
func (p *PaintContext) Size() (float64, float64) { return p.width, p.height }

// Scale returns the device pixel ratio.
func (p *PaintContext) Scale() float32 { return p.scale }

// Colors returns the compositor palette.
func (p *PaintContext) Colors() Colors { return p.colors }

// FillRect paints a rectangle given in logical units.
func (p *PaintContext) FillRect(x, y, w, h float64, col color.Color) {
	fillRectScaled(p.img, p.scale, x, y, w, h, col)
}

// DrawLabel renders small text with its left edge at logical x, clamped
// so the text stays inside the canvas.
func (p *PaintContext) DrawLabel(x float64, text string, col color.Color) {
	face := basicfont.Face7x13
	labelW := font.MeasureString(face, text).Ceil()

	px := int(x * float64(p.scale))
	maxX := p.img.Bounds().Dx() - labelW - 2
	if px > maxX {
		px = maxX
	}
	if px < 2 {
		px = 2
	}

	d := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(px, face.Ascent+2),
	}
	d.DrawString(text)
}

// defaultMarkerPaint draws a vertical line with a numbered label at the
// top, the label clamped to stay within canvas bounds.
func defaultMarkerPaint(ctx *PaintContext, x float64, index int, m Marker) {
	col := ctx.colors.Marker
	ctx.FillRect(x-0.5, 0, 1, ctx.height, col)

	label := m.Label
	if label == "" {
		label = strconv.Itoa(index + 1)
	}
	ctx.DrawLabel(x+2, label, col)
}
