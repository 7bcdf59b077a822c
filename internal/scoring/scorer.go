// Package scoring rates frame statistics on a 1-10 interest scale and
// describes why.
package scoring

import (
	"math"

	"github.com/kikiluvv/slopreel/internal/vision"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 10
)

// Weights caps each additive term of the rating. The term for a feature is
// feature/Divisor, clamped to [0, Cap].
type Weights struct {
	BrightnessTarget float64
	BrightnessCap    float64
	ContrastDivisor  float64
	ContrastCap      float64
	ColorDivisor     float64
	ColorCap         float64
	EdgeDivisor      float64
	EdgeCap          float64
	MotionDivisor    float64
	MotionCap        float64
}

// DefaultWeights is the fixed linear model used for every rating
var DefaultWeights = Weights{
	BrightnessTarget: 130,
	BrightnessCap:    2.0,
	ContrastDivisor:  40,
	ContrastCap:      2.5,
	ColorDivisor:     80,
	ColorCap:         2.0,
	EdgeDivisor:      30,
	EdgeCap:          1.5,
	MotionDivisor:    3.0,
	MotionCap:        2.0,
}

// Score reduces frame statistics to an integer rating in [1, 10]
func Score(stats vision.FrameStatistics) int {
	return DefaultWeights.Score(stats)
}

// Score applies w to stats. Halves round to even. Identical statistics
// always yield the same rating.
func (w Weights) Score(stats vision.FrameStatistics) int {
	total := w.Raw(stats)
	if math.IsNaN(total) {
		return MinRating
	}
	return clampRating(math.RoundToEven(total))
}

// Raw returns the unrounded sum of the five clamped terms
func (w Weights) Raw(stats vision.FrameStatistics) float64 {
	// Dark and blown-out frames are penalised symmetrically around the target
	penalty := math.Abs(stats.Brightness-w.BrightnessTarget) / w.BrightnessTarget
	brightness := clamp((1-penalty)*w.BrightnessCap, 0, w.BrightnessCap)

	contrast := clamp(stats.Contrast/w.ContrastDivisor, 0, w.ContrastCap)
	color := clamp(stats.Colorfulness/w.ColorDivisor, 0, w.ColorCap)
	edges := clamp(stats.EdgeDensity/w.EdgeDivisor, 0, w.EdgeCap)
	motion := clamp(stats.MotionScore/w.MotionDivisor, 0, w.MotionCap)

	return brightness + contrast + color + edges + motion
}

// SuggestedDuration maps a rating tier to a clip length in seconds
func SuggestedDuration(rating int) float64 {
	switch {
	case rating >= 9:
		return 5.0
	case rating >= 7:
		return 4.0
	case rating >= 5:
		return 3.0
	default:
		return 2.0
	}
}

func clampRating(v float64) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return int(v)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
