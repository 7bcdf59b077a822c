package pipeline

import (
	"context"
	"time"

	"github.com/kikiluvv/slopreel/internal/ffmpeg"
	"github.com/kikiluvv/slopreel/internal/highlights"
	"github.com/kikiluvv/slopreel/internal/moments"
)

// Result is everything one analysis produced
type Result struct {
	ID               string                   `json:"id"`
	VideoPath        string                   `json:"video_path"`
	VideoDuration    float64                  `json:"video_duration"`
	SamplingInterval float64                  `json:"sampling_interval"`
	Moments          []moments.MomentAnalysis `json:"moments"`
	Actions          []highlights.Action      `json:"actions"`
	Summary          string                   `json:"summary"`
	CreatedAt        time.Time                `json:"created_at"`
}

// RenderOptions configures render behavior
type RenderOptions struct {
	OutputPath   string
	TempDir      string
	Quality      int // CRF value
	Preset       string
	Width        int
	Height       int
	FadeDuration float64 // seconds at each clip edge for the "fade" transition
	ProgressFunc ffmpeg.ProgressFunc
}

// Opener opens a video for frame sampling. The caller closes the handle.
type Opener func(ctx context.Context, path string) (moments.VideoHandle, error)

// Editor cuts and joins video files
type Editor interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
}
