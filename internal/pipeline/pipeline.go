package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopreel/internal/config"
	"github.com/kikiluvv/slopreel/internal/ffmpeg"
	"github.com/kikiluvv/slopreel/internal/highlights"
	"github.com/kikiluvv/slopreel/internal/keyframes"
	"github.com/kikiluvv/slopreel/internal/metrics"
	"github.com/kikiluvv/slopreel/internal/moments"
	"github.com/kikiluvv/slopreel/pkg/util"
)

const (
	// summaryTop is how many rationales the summary names
	summaryTop = 5

	noHighlightsSummary = "Couldn't find enough standout moments. Try a video with more action or variety."
)

// Pipeline orchestrates the entire video processing workflow
type Pipeline struct {
	base   zerolog.Logger // handed to stages that tag their own component
	logger zerolog.Logger
	open   Opener
	editor Editor
}

// New creates a pipeline backed by ffmpeg
func New(logger zerolog.Logger, appCfg *config.Config) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		BinaryPath:   appCfg.FFmpeg.BinaryPath,
		ProbePath:    appCfg.FFmpeg.ProbePath,
		Threads:      appCfg.FFmpeg.Threads,
		FrameTimeout: appCfg.FFmpeg.FrameTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	open := func(ctx context.Context, path string) (moments.VideoHandle, error) {
		src, err := ffmpegExec.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	return NewWith(logger, open, ffmpegExec), nil
}

// NewWith creates a pipeline over any video source and editor
func NewWith(logger zerolog.Logger, open Opener, editor Editor) *Pipeline {
	return &Pipeline{
		base:   logger,
		logger: logger.With().Str("component", "pipeline").Logger(),
		open:   open,
		editor: editor,
	}
}

// AdaptInterval widens the sampling interval for long videos: over two hours
// samples every 120s, over one hour every 60s.
func AdaptInterval(duration, interval float64) float64 {
	switch {
	case duration > 7200:
		return 120
	case duration > 3600:
		return 60
	default:
		return interval
	}
}

// Analyze samples videoPath, selects its highlights and summarises them.
// The config is validated before the video is opened. If ctx is cancelled
// mid-run the moments gathered so far are returned with the context error.
func (p *Pipeline) Analyze(ctx context.Context, videoPath string, cfg highlights.Config) (result *Result, err error) {
	start := time.Now()
	status := metrics.StatusSuccess
	var selected []highlights.Range
	defer func() {
		if err != nil {
			status = metrics.StatusFailed
			var cfgErr *highlights.ConfigError
			switch {
			case errors.As(err, &cfgErr):
				status = metrics.StatusInvalid
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				status = metrics.StatusCancelled
			}
		}
		metrics.RecordAnalysis(status, time.Since(start).Seconds(), len(selected), highlights.TotalDuration(selected))
	}()

	if videoPath == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handle, err := p.open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			p.logger.Warn().Err(cerr).Str("input", videoPath).Msg("failed to close video")
		}
	}()

	duration := handle.Duration()
	interval := AdaptInterval(duration, cfg.SamplingInterval)
	if interval != cfg.SamplingInterval {
		p.logger.Info().
			Float64("requested", cfg.SamplingInterval).
			Float64("interval", interval).
			Msg("long video, widening sampling interval")
	}
	cfg.SamplingInterval = interval

	p.logger.Info().
		Str("input", videoPath).
		Float64("duration", duration).
		Float64("fps", handle.FrameRate()).
		Float64("interval", interval).
		Msg("starting analysis pipeline")

	result = &Result{
		ID:               uuid.NewString(),
		VideoPath:        videoPath,
		VideoDuration:    util.RoundTo(duration, 2),
		SamplingInterval: interval,
		Actions:          []highlights.Action{},
		CreatedAt:        time.Now().UTC(),
	}

	// Stage 1: sample and score frames
	sampler := moments.NewSampler(p.base, handle, interval)
	result.Moments, err = moments.Collect(ctx, sampler)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Warn().Int("moments", len(result.Moments)).Msg("analysis cancelled, returning partial moments")
			return result, err
		}
		return nil, fmt.Errorf("failed to sample frames: %w", err)
	}
	if stopped := sampler.Stopped(); stopped != nil {
		p.logger.Info().Err(stopped).Int("moments", len(result.Moments)).Msg("sampling stopped before the end of the video")
	}

	// Stage 2: pick highlights under the budget
	action := highlights.Select(result.Moments, cfg)
	selected = action.Parameters.Ranges
	result.Actions = append(result.Actions, action)
	result.Summary = Summarize(result.Moments)

	p.logger.Info().
		Str("id", result.ID).
		Int("moments", len(result.Moments)).
		Int("ranges", len(selected)).
		Float64("highlight_seconds", highlights.TotalDuration(selected)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis pipeline complete")

	return result, nil
}

// Summarize names the rationales of up to five of the best moments scoring
// at least highlights.MinHighlightScore, best first.
func Summarize(ms []moments.MomentAnalysis) string {
	top := make([]moments.MomentAnalysis, 0, len(ms))
	for _, m := range ms {
		if m.InterestScore >= highlights.MinHighlightScore {
			top = append(top, m)
		}
	}
	if len(top) == 0 {
		return noHighlightsSummary
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].InterestScore > top[j].InterestScore
	})
	if len(top) > summaryTop {
		top = top[:summaryTop]
	}

	reasons := make([]string, len(top))
	for i, m := range top {
		reasons[i] = m.Reason
	}
	return fmt.Sprintf("Found %d great moments! Top highlights: %s", len(top), strings.Join(reasons, ", "))
}

// Render cuts every range of a keep_only_highlights action out of input and
// joins them into opts.OutputPath.
func (p *Pipeline) Render(ctx context.Context, input string, action highlights.Action, opts RenderOptions) (output string, err error) {
	defer func() {
		switch {
		case err == nil:
			metrics.RecordRender(metrics.StatusSuccess)
		case ctx.Err() != nil:
			metrics.RecordRender(metrics.StatusCancelled)
		default:
			metrics.RecordRender(metrics.StatusFailed)
		}
	}()

	if action.Action != highlights.ActionKeepOnlyHighlights {
		return "", fmt.Errorf("unsupported action %q", action.Action)
	}
	if len(action.Parameters.Ranges) == 0 {
		return "", fmt.Errorf("action has no ranges to render")
	}
	if opts.OutputPath == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}
	if p.editor == nil {
		return "", fmt.Errorf("pipeline has no video editor")
	}

	p.logger.Info().
		Str("input", input).
		Str("output", opts.OutputPath).
		Int("ranges", len(action.Parameters.Ranges)).
		Msg("starting render pipeline")

	info, err := p.editor.ProbeVideo(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to probe video: %w", err)
	}

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := util.EnsureDir(tempDir); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	if err := util.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	renderID := uuid.NewString()
	clips := make([]string, 0, len(action.Parameters.Ranges))
	defer func() { util.CleanupFiles(clips...) }()

	videoEnd := info.Seconds()
	for i, r := range action.Parameters.Ranges {
		end := r.End
		if videoEnd > 0 {
			end = math.Min(end, videoEnd)
		}
		if end <= r.Start {
			p.logger.Warn().Float64("start", r.Start).Float64("end", r.End).Msg("range outside the video, skipping")
			continue
		}

		clipPath := filepath.Join(tempDir, fmt.Sprintf("slopreel-%s-%03d.mp4", renderID, i))
		clipOpts := p.clipOptions(action.Parameters, r.Start, end, info.HasAudio, opts)
		clipOpts.Output = clipPath

		if err := p.editor.ExtractClip(ctx, input, clipOpts); err != nil {
			return "", fmt.Errorf("failed to extract range %d: %w", i, err)
		}
		clips = append(clips, clipPath)
	}

	if len(clips) == 0 {
		return "", fmt.Errorf("no range overlaps the video")
	}

	err = p.editor.Concat(ctx, ffmpeg.ConcatOptions{
		Inputs:       clips,
		Output:       opts.OutputPath,
		TempDir:      tempDir,
		ProgressFunc: opts.ProgressFunc,
	})
	if err != nil {
		return "", fmt.Errorf("failed to concatenate clips: %w", err)
	}

	p.logger.Info().
		Str("output", opts.OutputPath).
		Int("clips", len(clips)).
		Msg("render pipeline complete")

	return opts.OutputPath, nil
}

// clipOptions translates the action's transition and filter into ffmpeg
// filter chains for one clip of start..end seconds.
func (p *Pipeline) clipOptions(params highlights.ActionParameters, start, end float64, hasAudio bool, opts RenderOptions) ffmpeg.ClipOptions {
	length := end - start
	video := ffmpeg.NewFilterBuilder().Scale(opts.Width, opts.Height)
	audio := ffmpeg.NewFilterBuilder()

	switch params.Transition {
	case highlights.TransitionFade:
		fade := math.Min(opts.FadeDuration, length/2)
		video.FadeIn(0, fade).FadeOut(length-fade, fade)
		if hasAudio {
			audio.AudioFadeIn(0, fade).AudioFadeOut(length-fade, fade)
		}
	case "":
	default:
		p.logger.Warn().Str("transition", params.Transition).Msg("unknown transition, cutting hard")
	}

	switch params.Filter {
	case highlights.FilterDramatic:
		video.Dramatic()
	case "":
	default:
		p.logger.Warn().Str("filter", params.Filter).Msg("unknown filter, leaving colours untouched")
	}

	return ffmpeg.ClipOptions{
		Start:        util.Seconds(start),
		End:          util.Seconds(end),
		VideoFilter:  video.Build(),
		AudioFilter:  audio.Build(),
		CRF:          opts.Quality,
		Preset:       opts.Preset,
		ProgressFunc: opts.ProgressFunc,
	}
}

// Keyframes extracts JPEG keyframes from videoPath
func (p *Pipeline) Keyframes(ctx context.Context, videoPath string, opts keyframes.Options) ([]keyframes.Keyframe, error) {
	if videoPath == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}

	handle, err := p.open(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := handle.Close(); cerr != nil {
			p.logger.Warn().Err(cerr).Str("input", videoPath).Msg("failed to close video")
		}
	}()

	return keyframes.Extract(ctx, p.base, handle, opts)
}
