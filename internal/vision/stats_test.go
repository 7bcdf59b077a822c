package vision

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// texturedFrame renders a smooth two-axis sinusoid shifted right by dx pixels
func texturedFrame(dx float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CanonicalWidth, CanonicalHeight))
	for y := 0; y < CanonicalHeight; y++ {
		for x := 0; x < CanonicalWidth; x++ {
			fx := float64(x) - dx
			v := 128 + 60*math.Sin(fx/7) + 60*math.Cos(float64(y)/9)
			g := uint8(math.Round(v))
			img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
		}
	}
	return img
}

func TestCompute_UniformFrame(t *testing.T) {
	frame := solidFrame(CanonicalWidth, CanonicalHeight, color.RGBA{128, 128, 128, 255})

	stats, gray, err := Compute(frame, nil)
	require.NoError(t, err)
	require.NotNil(t, gray)

	assert.Equal(t, 128.0, stats.Brightness)
	assert.Equal(t, 0.0, stats.Contrast)
	assert.Equal(t, 0.0, stats.Colorfulness)
	assert.Equal(t, 0.0, stats.EdgeDensity)
	assert.Equal(t, 0.0, stats.MotionScore)
}

func TestCompute_StepEdge(t *testing.T) {
	frame := solidFrame(CanonicalWidth, CanonicalHeight, color.RGBA{0, 0, 0, 255})
	for y := 0; y < CanonicalHeight; y++ {
		for x := CanonicalWidth / 2; x < CanonicalWidth; x++ {
			frame.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	stats, _, err := Compute(frame, nil)
	require.NoError(t, err)

	assert.InDelta(t, 127.5, stats.Brightness, 1e-9)
	assert.InDelta(t, 127.5, stats.Contrast, 1e-9)
	// two columns respond with |gx| = 4 * 255
	assert.InDelta(t, 2*1020.0/CanonicalWidth, stats.EdgeDensity, 1e-9)
	assert.Equal(t, 0.0, stats.Colorfulness)
}

func TestCompute_SaturatedColor(t *testing.T) {
	frame := solidFrame(CanonicalWidth, CanonicalHeight, color.RGBA{255, 0, 0, 255})

	stats, _, err := Compute(frame, nil)
	require.NoError(t, err)

	assert.Equal(t, 255.0, stats.Colorfulness)
	assert.Equal(t, 76.0, stats.Brightness)
}

func TestCompute_ResizesToCanonical(t *testing.T) {
	frame := solidFrame(1280, 720, color.RGBA{40, 80, 120, 255})

	stats, gray, err := Compute(frame, nil)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, CanonicalWidth, CanonicalHeight), gray.Bounds())
	assert.InDelta(t, 0.299*40+0.587*80+0.114*120, stats.Brightness, 1.0)
	assert.InDelta(t, 0.0, stats.Contrast, 1.0)
}

func TestCompute_MotionZeroForIdenticalFrames(t *testing.T) {
	frame := texturedFrame(0)

	_, prev, err := Compute(frame, nil)
	require.NoError(t, err)

	stats, _, err := Compute(frame, prev)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, stats.MotionScore, 1e-6)
}

func TestCompute_MotionForShiftedFrames(t *testing.T) {
	_, prev, err := Compute(texturedFrame(0), nil)
	require.NoError(t, err)

	stats, _, err := Compute(texturedFrame(2), prev)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, stats.MotionScore, 0.2)
}

func TestCompute_MotionTracksShiftSize(t *testing.T) {
	_, prev, err := Compute(texturedFrame(0), nil)
	require.NoError(t, err)

	var last float64
	for _, dx := range []float64{1, 2, 4} {
		stats, _, err := Compute(texturedFrame(dx), prev)
		require.NoError(t, err)
		assert.InDelta(t, dx, stats.MotionScore, 0.15*dx+0.1, "shift %vpx", dx)
		assert.Greater(t, stats.MotionScore, last)
		last = stats.MotionScore
	}
}

func TestCompute_InvalidFrames(t *testing.T) {
	_, _, err := Compute(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidFrame)

	_, _, err = Compute(image.NewRGBA(image.Rect(0, 0, 0, 0)), nil)
	assert.ErrorIs(t, err, ErrInvalidFrame)

	prev := image.NewGray(image.Rect(0, 0, 10, 10))
	_, _, err = Compute(texturedFrame(0), prev)
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestCanonicalize_KeepsCanonicalRGBA(t *testing.T) {
	frame := solidFrame(CanonicalWidth, CanonicalHeight, color.RGBA{1, 2, 3, 255})

	out, err := Canonicalize(frame)
	require.NoError(t, err)
	assert.Same(t, frame, out)
}
