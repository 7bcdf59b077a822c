package moments

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopreel/internal/metrics"
	"github.com/kikiluvv/slopreel/internal/scoring"
	"github.com/kikiluvv/slopreel/internal/vision"
	"github.com/kikiluvv/slopreel/pkg/util"
)

// Sampler walks a video timeline at a fixed interval and rates one frame per
// step. It is a single-use scanner:
//
//	s := moments.NewSampler(logger, handle, 30)
//	for s.Next(ctx) {
//		m := s.Moment()
//	}
//	if err := s.Err(); err != nil { ... }
//
// A failed frame read ends the sequence without an error; Stopped reports
// the cause. Err reports cancellation and malformed frames.
type Sampler struct {
	logger   zerolog.Logger
	handle   VideoHandle
	interval float64
	duration float64
	fps      float64

	step    int
	prev    *image.Gray
	current MomentAnalysis
	stats   vision.FrameStatistics

	done    bool
	err     error
	stopped error
}

// NewSampler creates a sampler over handle. The handle is borrowed; the
// sampler never closes it.
func NewSampler(logger zerolog.Logger, handle VideoHandle, interval float64) *Sampler {
	return &Sampler{
		logger:   logger.With().Str("component", "sampler").Logger(),
		handle:   handle,
		interval: interval,
		duration: handle.Duration(),
		fps:      handle.FrameRate(),
	}
}

// Next advances to the next sampled timestamp. It returns false once the
// timeline is exhausted, a frame cannot be read, or ctx is done.
func (s *Sampler) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if !(s.interval > 0) {
		return s.fail(fmt.Errorf("sampling interval must be positive, got %v", s.interval))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(err)
	}

	t := float64(s.step) * s.interval
	if t >= s.duration {
		s.done = true
		return false
	}

	frame, err := s.handle.ReadFrameAt(ctx, SeekTime(t, s.fps))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.fail(ctxErr)
		}
		s.halt(t, err)
		return false
	}

	stats, gray, err := vision.Compute(frame, s.prev)
	if err != nil {
		return s.fail(fmt.Errorf("frame at %.2fs: %w", t, err))
	}

	rating := scoring.Score(stats)
	s.current = MomentAnalysis{
		Timestamp:         util.RoundTo(t, 2),
		InterestScore:     rating,
		Reason:            scoring.Describe(stats, rating),
		SuggestedDuration: scoring.SuggestedDuration(rating),
	}
	s.stats = stats
	s.prev = gray
	s.step++

	metrics.RecordFrame(rating)

	s.logger.Debug().
		Float64("timestamp", s.current.Timestamp).
		Float64("brightness", stats.Brightness).
		Float64("contrast", stats.Contrast).
		Float64("colorfulness", stats.Colorfulness).
		Float64("edge_density", stats.EdgeDensity).
		Float64("motion", stats.MotionScore).
		Int("score", rating).
		Msg("frame scored")

	return true
}

// Moment returns the moment produced by the last successful Next
func (s *Sampler) Moment() MomentAnalysis {
	return s.current
}

// Statistics returns the frame statistics behind the current moment
func (s *Sampler) Statistics() vision.FrameStatistics {
	return s.stats
}

// Err returns the error that aborted sampling, if any. Read failures are not
// errors; see Stopped.
func (s *Sampler) Err() error {
	return s.err
}

// Stopped returns the read failure that ended sampling before the end of the
// timeline, or nil.
func (s *Sampler) Stopped() error {
	return s.stopped
}

// SeekTime aligns t to the start of the frame that contains it. With an
// unknown frame rate t is returned unchanged.
func SeekTime(t, fps float64) float64 {
	if fps <= 0 {
		return t
	}
	// absorb products like 0.29999999 * 10
	return math.Floor(t*fps+1e-9) / fps
}

func (s *Sampler) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

func (s *Sampler) halt(t float64, err error) {
	s.stopped = err
	s.done = true

	if errors.Is(err, ErrEndOfStream) {
		metrics.RecordReadFailure(metrics.ReasonEndOfStream)
		s.logger.Debug().Float64("timestamp", t).Msg("end of stream before timeline end")
		return
	}

	metrics.RecordReadFailure(metrics.ReasonDecodeError)
	s.logger.Warn().
		Err(err).
		Float64("timestamp", t).
		Int("moments", s.step).
		Msg("frame read failed, keeping moments gathered so far")
}

// Collect drains s and returns every moment it produced. On cancellation the
// moments gathered so far are returned together with the context error.
func Collect(ctx context.Context, s *Sampler) ([]MomentAnalysis, error) {
	out := make([]MomentAnalysis, 0)
	for s.Next(ctx) {
		out = append(out, s.Moment())
	}
	return out, s.Err()
}
