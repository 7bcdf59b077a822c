package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/kikiluvv/slopreel/pkg/util"
)

// ClipOptions defines clip extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	CopyCodec    bool // If true, use -c copy for fast extraction
	VideoFilter  string
	AudioFilter  string
	VideoCodec   string
	AudioCodec   string
	CRF          int // Quality (0-51, lower = better)
	Preset       string
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video. Filters are applied to the
// segment's own timeline, which starts at zero.
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.CopyCodec && (opts.VideoFilter != "" || opts.AudioFilter != "") {
		return fmt.Errorf("filters require re-encoding")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Bool("copy_codec", opts.CopyCodec).
		Msg("extracting clip")

	args := []string{
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(duration),
		"-i", input,
	}

	if opts.VideoFilter != "" {
		args = append(args, "-vf", opts.VideoFilter)
	}
	if opts.AudioFilter != "" {
		args = append(args, "-af", opts.AudioFilter)
	}

	if opts.CopyCodec {
		args = append(args, "-c", "copy")
	} else {
		codec := opts.VideoCodec
		if codec == "" {
			codec = DefaultVideoCodec
		}
		args = append(args, "-c:v", codec)

		audioCodec := opts.AudioCodec
		if audioCodec == "" {
			audioCodec = DefaultAudioCodec
		}
		args = append(args, "-c:a", audioCodec)

		crf := opts.CRF
		if crf == 0 {
			crf = DefaultCRF
		}
		args = append(args, "-crf", fmt.Sprintf("%d", crf))

		preset := opts.Preset
		if preset == "" {
			preset = DefaultPreset
		}
		args = append(args, "-preset", preset, "-pix_fmt", "yuv420p")
	}

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}
