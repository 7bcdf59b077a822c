package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/kikiluvv/slopreel/internal/moments"
)

// ReadFrame decodes the single frame shown at t seconds. Seeking past the
// last frame yields moments.ErrEndOfStream.
func (e *Executor) ReadFrame(ctx context.Context, path string, t float64) (image.Image, error) {
	args := []string{
		"-ss", strconv.FormatFloat(t, 'f', 6, 64),
		"-i", path,
		"-frames:v", "1",
		"-an",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}

	out, err := e.Output(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("read frame at %.3fs: %w", t, err)
	}
	if len(out) == 0 {
		return nil, moments.ErrEndOfStream
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode frame at %.3fs: %w", t, err)
	}

	return img, nil
}
