package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MinPixelSize is the smallest width or height a transformed entity may
// collapse to.
const MinPixelSize = 1

// RoundPixel rounds half up, the way the browser host rounds pixel values.
// math.Round would round -2.5 to -3 where the host gives -2.
func RoundPixel(v float64) float64 {
	return math.Floor(v + 0.5)
}

// SnapCoordinate rounds both axes to the nearest integer pixel.
func SnapCoordinate(c Coordinate) Coordinate {
	return Coordinate{X: RoundPixel(c.X), Y: RoundPixel(c.Y)}
}

// ToAbsolute converts a logical point to screen space for a viewport with
// the given offset and uniform scale.
func ToAbsolute(p, offset Coordinate, scale float64) Coordinate {
	return r2.Add(r2.Scale(scale, p), offset)
}

// ToLogical converts a screen-space point to logical stage space.
func ToLogical(abs, offset Coordinate, scale float64) Coordinate {
	if scale == 0 {
		return r2.Sub(abs, offset)
	}
	return r2.Scale(1/scale, r2.Sub(abs, offset))
}

// SnapAnchor snaps an absolute position to the nearest rendered pixel
// boundary. The viewport offset may be fractional, so the boundaries sit at
// offset mod scale rather than at multiples of scale.
func SnapAnchor(abs, stagePos Coordinate, scale float64) Coordinate {
	if scale <= 0 {
		return abs
	}
	offX := math.Mod(stagePos.X, scale)
	offY := math.Mod(stagePos.Y, scale)
	return Coordinate{
		X: RoundPixel((abs.X-offX)/scale)*scale + offX,
		Y: RoundPixel((abs.Y-offY)/scale)*scale + offY,
	}
}

// SnapScale turns an accumulated scale factor into an integer target length
// (at least MinPixelSize) and the exact signed factor that reproduces it.
// The sign of scale is kept so a flipped entity stays flipped.
func SnapScale(size, scale float64) (target, corrected float64) {
	if size <= 0 {
		size = MinPixelSize
	}
	target = max(RoundPixel(math.Abs(size*scale)), MinPixelSize)
	corrected = target / size
	if math.Signbit(scale) {
		corrected = -corrected
	}
	return target, corrected
}
