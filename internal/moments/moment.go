// Package moments turns a video timeline into a sequence of rated moments.
package moments

import (
	"context"
	"errors"
	"image"
)

// ErrEndOfStream is returned by a VideoHandle when no frame exists at the
// requested position.
var ErrEndOfStream = errors.New("end of stream")

// VideoHandle is a borrowed, seekable video source. It is owned by a single
// analysis and closed by whoever opened it.
type VideoHandle interface {
	// Duration returns the timeline length in seconds
	Duration() float64

	// FrameRate returns frames per second, or 0 if unknown
	FrameRate() float64

	// ReadFrameAt decodes the frame nearest to t seconds. It returns
	// ErrEndOfStream when there is no frame to read.
	ReadFrameAt(ctx context.Context, t float64) (image.Image, error)

	// Close releases decoding resources
	Close() error
}

// MomentAnalysis is the rating of one sampled timestamp
type MomentAnalysis struct {
	Timestamp         float64 `json:"timestamp"`
	InterestScore     int     `json:"interest_score"`
	Reason            string  `json:"reason"`
	SuggestedDuration float64 `json:"suggested_duration"`
}
