// Package vision computes per-frame visual statistics used to rate moments.
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// Canonical frame size. Every frame is resized to it before any statistic is
// computed so metrics are comparable across source resolutions.
const (
	CanonicalWidth  = 640
	CanonicalHeight = 360
)

// ErrInvalidFrame is returned for nil, empty or mismatched frame buffers.
var ErrInvalidFrame = errors.New("invalid frame")

// FrameStatistics is the five-feature summary of one sampled frame
type FrameStatistics struct {
	Brightness   float64 `json:"brightness"`   // mean luma, 0-255
	Contrast     float64 `json:"contrast"`     // luma std-dev
	Colorfulness float64 `json:"colorfulness"` // mean HSV saturation
	EdgeDensity  float64 `json:"edge_density"` // mean Sobel magnitude
	MotionScore  float64 `json:"motion_score"` // mean optical-flow magnitude vs previous frame
}

// Compute derives FrameStatistics for frame. prev is the grayscale buffer
// returned by the previous call (nil for the first sampled frame); the
// current grayscale buffer is returned for the next call.
func Compute(frame image.Image, prev *image.Gray) (FrameStatistics, *image.Gray, error) {
	rgba, err := Canonicalize(frame)
	if err != nil {
		return FrameStatistics{}, nil, err
	}

	gray := Grayscale(rgba)
	brightness, contrast := meanStdDev(gray)

	stats := FrameStatistics{
		Brightness:   brightness,
		Contrast:     contrast,
		Colorfulness: meanSaturation(rgba),
		EdgeDensity:  edgeDensity(gray),
	}

	if prev != nil {
		if prev.Bounds() != gray.Bounds() {
			return FrameStatistics{}, nil, fmt.Errorf("%w: previous frame is %v, current is %v",
				ErrInvalidFrame, prev.Bounds().Size(), gray.Bounds().Size())
		}
		stats.MotionScore = meanFlowMagnitude(prev, gray)
	}

	return stats, gray, nil
}

// Canonicalize resizes img to the canonical resolution and returns it as a
// zero-origin RGBA buffer.
func Canonicalize(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidFrame)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidFrame, b)
	}

	src := img
	if b.Dx() != CanonicalWidth || b.Dy() != CanonicalHeight {
		src = resize.Resize(CanonicalWidth, CanonicalHeight, img, resize.Bilinear)
	}

	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, CanonicalWidth, CanonicalHeight))
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst, nil
}
