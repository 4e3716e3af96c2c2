// Package geometry maps UI-relative pointer coordinates onto device-physical
// pixels, accounting for device rotation and content cropping.
package geometry

import "fmt"

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is a crop region within a video frame, edge offsets inclusive-left.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

func (r Rect) Width() int {
	return r.Right - r.Left
}

func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Rotation is the physical device orientation in 90-degree steps.
type Rotation int

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// FromDegrees converts a degree value to a Rotation.
func FromDegrees(deg int) (Rotation, error) {
	deg = ((deg % 360) + 360) % 360
	if deg%90 != 0 {
		return Rotation0, fmt.Errorf("geometry: invalid rotation degrees: %d", deg)
	}
	return Rotation(deg / 90), nil
}

// Inverse returns the rotation that undoes r.
func (r Rotation) Inverse() Rotation {
	return Rotation((4 - int(r)%4) % 4)
}

func (r Rotation) String() string {
	switch r {
	case Rotation0:
		return "0"
	case Rotation90:
		return "90"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

// ScreenInfo describes the captured video frame: its size, the device
// rotation it was captured under, and the sub-region holding actual screen
// content. Replaced as a whole whenever geometry changes.
type ScreenInfo struct {
	VideoSize   Size
	Rotation    Rotation
	ContentRect Rect
}

// Position is a point together with the screen size it was captured against.
type Position struct {
	Point      Point
	ScreenSize Size
}

// Rotate re-expresses the position after the given number of 90-degree
// steps. One step maps (x,y) within (w,h) to (y, w-x) within (h,w); four
// steps are the identity.
func (p Position) Rotate(r Rotation) Position {
	out := p
	for i := 0; i < int(r)%4; i++ {
		out = Position{
			Point:      Point{X: out.Point.Y, Y: out.ScreenSize.Width - out.Point.X},
			ScreenSize: Size{Width: out.ScreenSize.Height, Height: out.ScreenSize.Width},
		}
	}
	return out
}
