package blit

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/KononK/resize"
	"github.com/daaku/swizzle"
)

// LayerSource is the minimal pixel source one compositable layer needs:
// the client buffer's raw packed pixels plus the channel order they are
// stored in, mirroring wlcommit.Buffer without importing it (avoids a
// blit<->wlcommit import cycle; the paint loop adapts the two).
type LayerSource struct {
	Pix           []byte
	Width, Height int
	Stride        int

	// BGROrder is true for the XRGB8888/ARGB8888 formats, which pack
	// bytes as B,G,R,X in memory; false for XBGR8888/ABGR8888 (R,G,B,X).
	BGROrder bool
}

// rgba returns src's pixels as a standalone image.NRGBA in canonical
// R,G,B,A byte order. A BGR-ordered source is swizzled on a private
// copy of its pixels so the caller's buffer is never mutated, matching
// §4.1's rule that a Commit's buffer is only ever read by the paint
// loop, never written.
func (src LayerSource) rgba() *image.NRGBA {
	pix := make([]byte, len(src.Pix))
	copy(pix, src.Pix)
	if src.BGROrder {
		swizzle.BGRA(pix)
	}
	return &image.NRGBA{Pix: pix, Stride: src.Stride, Rect: image.Rect(0, 0, src.Width, src.Height)}
}

// Layer is one layer to rasterise: a pixel source resized into DestRect
// and blended at Opacity, in the z-order Compose receives them.
type Layer struct {
	Source   LayerSource
	DestRect image.Rectangle
	Opacity  float64
	Nearest  bool // true when the planner requested nearest-tap filtering
}

// Compose rasterises layers (already sorted into z-order by the
// planner) onto an outputW x outputH canvas, letterboxed in black. This
// is the software stand-in for the Vulkan black-box compositor (§1);
// its only caller is the paint loop's full-composite screenshot path.
// No backend routes presented frames through it.
func Compose(layers []Layer, outputW, outputH int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, outputW, outputH))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for _, l := range layers {
		if l.DestRect.Empty() || l.Source.Width == 0 || l.Source.Height == 0 {
			continue
		}
		dest := l.DestRect.Intersect(out.Bounds())
		if dest.Empty() {
			continue
		}

		interp := resize.Bilinear
		if l.Nearest {
			interp = resize.NearestNeighbor
		}
		scaled := resize.Resize(uint(l.DestRect.Dx()), uint(l.DestRect.Dy()), l.Source.rgba(), interp)

		srcOffset := image.Pt(dest.Min.X-l.DestRect.Min.X, dest.Min.Y-l.DestRect.Min.Y)
		if l.Opacity >= 1 {
			draw.Draw(out, dest, scaled, srcOffset, draw.Over)
			continue
		}
		if l.Opacity <= 0 {
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(l.Opacity*0xff + 0.5)})
		draw.DrawMask(out, dest, scaled, srcOffset, mask, image.Point{}, draw.Over)
	}
	return out
}
