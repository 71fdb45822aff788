// Package blit provides small image-cropping adapters, grounded on
// ctxmenu's subimage-based icon blitting (subimage.go), repurposed here
// to crop a composited frame down to a single window's rectangle for
// window-scoped screenshots.
package blit

import (
	"image"
	"image/color"
)

// SubImage offsets an image.Image into a sub-rectangle without copying
// its pixels.
type SubImage struct {
	Src  image.Image
	Rect image.Rectangle
}

// At returns the color of the pixel at (x, y), relative to Rect's origin.
func (si *SubImage) At(x, y int) color.Color {
	if x < 0 || x >= si.Rect.Dx() || y < 0 || y >= si.Rect.Dy() {
		return color.RGBA{}
	}
	return si.Src.At(si.Rect.Min.X+x, si.Rect.Min.Y+y)
}

// Set writes through to the underlying image if it supports mutation;
// a no-op otherwise.
func (si *SubImage) Set(x, y int, c color.Color) {
	dst, ok := si.Src.(interface {
		Set(x, y int, c color.Color)
	})
	if !ok || x < 0 || x >= si.Rect.Dx() || y < 0 || y >= si.Rect.Dy() {
		return
	}
	dst.Set(si.Rect.Min.X+x, si.Rect.Min.Y+y, c)
}

// Bounds returns the cropped rectangle, always anchored at (0, 0).
func (si *SubImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, si.Rect.Dx(), si.Rect.Dy())
}

// ColorModel returns the underlying image's color model.
func (si *SubImage) ColorModel() color.Model {
	return si.Src.ColorModel()
}
