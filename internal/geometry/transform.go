package geometry

import "math"

// Transform maps a UI-space position onto device-physical pixel coordinates.
//
// screenWidth is the logical width the caller's coordinate system assumes.
// The rotation applied here is always the physical device rotation, never a
// locked video-orientation override. A position captured against a screen
// size that no longer matches the current video frame is stale input from
// before a rotation change; it yields ok=false and must be dropped, not
// mis-translated. Zero-sized content rects and a zero screenWidth are the
// caller's responsibility to avoid.
func Transform(info ScreenInfo, pos Position, screenWidth int) (Point, bool) {
	video := info.VideoSize
	rect := info.ContentRect

	var shortSide int
	if video.Width >= video.Height {
		shortSide = rect.Height()
	} else {
		shortSide = rect.Width()
	}
	scale := float64(shortSide) / float64(screenWidth)

	rotated := pos.Rotate(info.Rotation)
	if rotated.ScreenSize != video {
		return Point{}, false
	}

	x := float64(rect.Left) + float64(rotated.Point.X)*float64(rect.Width())/float64(video.Width)
	y := float64(rect.Top) + float64(rotated.Point.Y)*float64(rect.Height())/float64(video.Height)

	return Point{
		X: int(math.Round(x / scale)),
		Y: int(math.Round(y / scale)),
	}, true
}
