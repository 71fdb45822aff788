package wire

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// InfoframeRaw is the wire-encoded CTA-861-G Type 1 static metadata
// infoframe (§6): eight u16 chromaticity coordinates, max/min mastering
// luminance, max_cll and max_fall.
type InfoframeRaw struct {
	ChromaticityX [4]uint16 // R, G, B, White
	ChromaticityY [4]uint16
	MaxMasteringLuminance uint16
	MinMasteringLuminance uint16
	MaxCLL                uint16
	MaxFALL               uint16
}

// chromaticityScale implements round(v * 50000), using fixed.Int26_6 the
// way the teacher's font-metrics code (ctxmenu.go) already reaches for
// golang.org/x/image/math/fixed to do fixed-point rounding, rather than
// hand-rolling a rounding helper.
func chromaticityScale(v float64) uint16 {
	scaled := fixed.Int26_6(math.Round(v * 50000 * 64))
	return uint16(scaled.Round())
}

// maxLuminanceScale implements the max-mastering-luminance / max_cll /
// max_fall encoding: nits as-is, rounded to the nearest integer.
func maxLuminanceScale(nits float64) uint16 {
	return uint16(math.Round(nits))
}

// minLuminanceScale implements round(nits * 10000) for the minimum
// mastering luminance field.
func minLuminanceScale(nits float64) uint16 {
	return uint16(math.Round(nits * 10000))
}

// ChromaticityCoord is a normalized (0..1) CIE xy chromaticity pair.
type ChromaticityCoord struct{ X, Y float64 }

// Mastering describes the source HDR static metadata in physical units
// before wire encoding.
type Mastering struct {
	Red, Green, Blue, White ChromaticityCoord
	MaxMasteringLuminanceNits float64
	MinMasteringLuminanceNits float64
	MaxCLLNits                float64
	MaxFALLNits                float64
}

// EncodeInfoframe converts physical HDR static metadata into the wire
// encoding of §6.
func EncodeInfoframe(m Mastering) InfoframeRaw {
	coords := [4]ChromaticityCoord{m.Red, m.Green, m.Blue, m.White}
	var out InfoframeRaw
	for i, c := range coords {
		out.ChromaticityX[i] = chromaticityScale(c.X)
		out.ChromaticityY[i] = chromaticityScale(c.Y)
	}
	out.MaxMasteringLuminance = maxLuminanceScale(m.MaxMasteringLuminanceNits)
	out.MinMasteringLuminance = minLuminanceScale(m.MinMasteringLuminanceNits)
	out.MaxCLL = maxLuminanceScale(m.MaxCLLNits)
	out.MaxFALL = maxLuminanceScale(m.MaxFALLNits)
	return out
}
