package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync/atomic"

	"github.com/kikiluvv/slopreel/internal/moments"
	"github.com/kikiluvv/slopreel/pkg/util"
)

// ErrVideoOpen is wrapped by every VideoOpenError
var ErrVideoOpen = errors.New("cannot open video")

// ErrSourceClosed is returned by reads on a closed Source
var ErrSourceClosed = errors.New("video source closed")

// VideoOpenError reports a video that is missing, unreadable or has no
// video stream.
type VideoOpenError struct {
	Path string
	Err  error
}

func (e *VideoOpenError) Error() string {
	return fmt.Sprintf("cannot open video %q: %v", e.Path, e.Err)
}

func (e *VideoOpenError) Unwrap() []error {
	return []error{ErrVideoOpen, e.Err}
}

var _ moments.VideoHandle = (*Source)(nil)

// Source is a probed video read one frame at a time
type Source struct {
	exec   *Executor
	info   *VideoInfo
	closed atomic.Bool
}

// Open probes path and returns a Source over its first video stream
func (e *Executor) Open(ctx context.Context, path string) (*Source, error) {
	if !util.FileExists(path) {
		return nil, &VideoOpenError{Path: path, Err: os.ErrNotExist}
	}

	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		return nil, &VideoOpenError{Path: path, Err: err}
	}
	if !info.HasVideo {
		return nil, &VideoOpenError{Path: path, Err: errors.New("no video stream")}
	}

	e.logger.Debug().
		Str("path", path).
		Float64("duration", info.Seconds()).
		Float64("fps", info.FPS).
		Int64("frames", info.Frames).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("video opened")

	return &Source{exec: e, info: info}, nil
}

// Info returns the probe result
func (s *Source) Info() *VideoInfo {
	return s.info
}

func (s *Source) Duration() float64 {
	return s.info.Seconds()
}

func (s *Source) FrameRate() float64 {
	return s.info.FPS
}

// ReadFrameAt decodes the frame at t seconds, bounded by the executor's
// frame timeout.
func (s *Source) ReadFrameAt(ctx context.Context, t float64) (image.Image, error) {
	if s.closed.Load() {
		return nil, ErrSourceClosed
	}

	if timeout := s.exec.frameTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return s.exec.ReadFrame(ctx, s.info.FilePath, t)
}

// Close marks the source closed. It is safe to call more than once.
func (s *Source) Close() error {
	s.closed.Store(true)
	return nil
}
