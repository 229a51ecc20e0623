package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, ParseHexColor("#1a2b3c"))
	assert.Equal(t, color.NRGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0x80}, ParseHexColor("#1a2b3c80"))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, ParseHexColor("ffffff"))

	// Malformed input falls back to opaque black instead of erroring.
	assert.Equal(t, color.NRGBA{A: 0xff}, ParseHexColor(""))
	assert.Equal(t, color.NRGBA{A: 0xff}, ParseHexColor("#12"))
	assert.Equal(t, color.NRGBA{A: 0xff}, ParseHexColor("#zzzzzz"))
}
