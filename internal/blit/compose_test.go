package blit

import (
	"image"
	"testing"
)

// solidSource builds a 2x2 RGBA or BGRA pixel buffer, every pixel the
// given colour, so Compose's resize+swizzle path can be checked against
// a known output colour rather than a golden image.
func solidSource(w, h int, r, g, b, a byte, bgr bool) LayerSource {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		if bgr {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = b, g, r, a
		} else {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
		}
	}
	return LayerSource{Pix: pix, Width: w, Height: h, Stride: w * 4, BGROrder: bgr}
}

func TestComposeFillsDestRectAtFullOpacity(t *testing.T) {
	layer := Layer{
		Source:   solidSource(2, 2, 200, 100, 50, 255, false),
		DestRect: image.Rect(0, 0, 4, 4),
		Opacity:  1,
	}
	out := Compose([]Layer{layer}, 4, 4)

	c := out.NRGBAAt(1, 1)
	if c.R != 200 || c.G != 100 || c.B != 50 || c.A != 255 {
		t.Fatalf("expected solid colour at (1,1), got %+v", c)
	}
}

func TestComposeLeavesUncoveredAreaBlack(t *testing.T) {
	layer := Layer{
		Source:   solidSource(2, 2, 200, 100, 50, 255, false),
		DestRect: image.Rect(0, 0, 2, 2),
		Opacity:  1,
	}
	out := Compose([]Layer{layer}, 4, 4)

	c := out.NRGBAAt(3, 3)
	if c.R != 0 || c.G != 0 || c.B != 0 {
		t.Fatalf("expected black letterbox outside the dest rect, got %+v", c)
	}
}

func TestComposeSwizzlesBGROrderedSource(t *testing.T) {
	// BGROrder true means the bytes are stored B,G,R,A; Compose must
	// hand resize.Resize canonical R,G,B,A pixels regardless.
	layer := Layer{
		Source:   solidSource(2, 2, 200, 100, 50, 255, true),
		DestRect: image.Rect(0, 0, 2, 2),
		Opacity:  1,
	}
	out := Compose([]Layer{layer}, 2, 2)

	c := out.NRGBAAt(0, 0)
	if c.R != 200 || c.G != 100 || c.B != 50 {
		t.Fatalf("expected swizzled colour (200,100,50), got %+v", c)
	}
}

func TestComposeBlendsPartialOpacityOverBlack(t *testing.T) {
	layer := Layer{
		Source:   solidSource(2, 2, 255, 255, 255, 255, false),
		DestRect: image.Rect(0, 0, 2, 2),
		Opacity:  0.5,
	}
	out := Compose([]Layer{layer}, 2, 2)

	c := out.NRGBAAt(0, 0)
	if c.R < 100 || c.R > 150 {
		t.Fatalf("expected roughly half-intensity blend over black, got R=%d", c.R)
	}
}

func TestComposeSkipsEmptyDestRect(t *testing.T) {
	layer := Layer{
		Source:   solidSource(2, 2, 255, 0, 0, 255, false),
		DestRect: image.Rectangle{},
		Opacity:  1,
	}
	out := Compose([]Layer{layer}, 2, 2)

	c := out.NRGBAAt(0, 0)
	if c.R != 0 {
		t.Fatalf("expected empty dest rect to be skipped, got %+v", c)
	}
}
