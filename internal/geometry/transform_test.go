package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullFrame(video Size, r Rotation) ScreenInfo {
	return ScreenInfo{
		VideoSize: video,
		Rotation:  r,
		ContentRect: Rect{
			Left:   0,
			Top:    0,
			Right:  video.Width,
			Bottom: video.Height,
		},
	}
}

func TestTransformPortraitFullFrame(t *testing.T) {
	// 1080x1920 portrait, full content rect, no rotation, 360 logical width:
	// shortSide=1080, scale=3.0.
	info := fullFrame(Size{Width: 1080, Height: 1920}, Rotation0)
	pos := Position{
		Point:      Point{X: 100, Y: 200},
		ScreenSize: Size{Width: 1080, Height: 1920},
	}

	got, ok := Transform(info, pos, 360)
	require.True(t, ok)
	assert.Equal(t, Point{X: 33, Y: 67}, got)
}

func TestTransformCroppedLandscape(t *testing.T) {
	// Pillarboxed 1920x1080 frame: content occupies x∈[240,1680).
	info := ScreenInfo{
		VideoSize:   Size{Width: 1920, Height: 1080},
		Rotation:    Rotation0,
		ContentRect: Rect{Left: 240, Top: 0, Right: 1680, Bottom: 1080},
	}
	pos := Position{
		Point:      Point{X: 960, Y: 540},
		ScreenSize: Size{Width: 1920, Height: 1080},
	}

	got, ok := Transform(info, pos, 360)
	require.True(t, ok)
	assert.Equal(t, Point{X: 320, Y: 180}, got)
}

func TestTransformRotationRoundTrip(t *testing.T) {
	// Full content rect with screenWidth equal to the short side gives scale
	// 1.0, so the inverse rotation must recover the input exactly.
	video := Size{Width: 1080, Height: 1920}
	for r := Rotation0; r <= Rotation270; r++ {
		screen := video
		if r == Rotation90 || r == Rotation270 {
			screen = Size{Width: video.Height, Height: video.Width}
		}
		pos := Position{Point: Point{X: 123, Y: 456}, ScreenSize: screen}
		info := fullFrame(video, r)

		got, ok := Transform(info, pos, 1080)
		require.True(t, ok, "rotation %s", r)

		back := Position{Point: got, ScreenSize: video}.Rotate(r.Inverse())
		assert.Equal(t, pos, back, "rotation %s", r)
	}
}

func TestTransformStalePositionDropped(t *testing.T) {
	// A position captured before a rotation change carries the old screen
	// size and must be dropped for every rotation.
	video := Size{Width: 1080, Height: 1920}
	pos := Position{
		Point:      Point{X: 10, Y: 10},
		ScreenSize: Size{Width: 720, Height: 1280},
	}
	for r := Rotation0; r <= Rotation270; r++ {
		_, ok := Transform(fullFrame(video, r), pos, 360)
		assert.False(t, ok, "rotation %s", r)
	}
}
