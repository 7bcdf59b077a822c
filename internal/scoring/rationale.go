package scoring

import (
	"strings"

	"github.com/kikiluvv/slopreel/internal/vision"
)

const clauseSeparator = ", "

// Describe produces a short human-readable rationale for a rated frame.
// The motion clause always comes first; a rating-tier label is prefixed
// for ratings of 5 and above.
func Describe(stats vision.FrameStatistics, rating int) string {
	parts := make([]string, 0, 7)

	switch {
	case rating >= 9:
		parts = append(parts, "exceptional moment")
	case rating >= 7:
		parts = append(parts, "strong moment")
	case rating >= 5:
		parts = append(parts, "decent moment")
	}

	switch {
	case stats.MotionScore > 3.0:
		parts = append(parts, "high action/movement")
	case stats.MotionScore > 1.5:
		parts = append(parts, "moderate activity")
	default:
		parts = append(parts, "static scene")
	}

	switch {
	case stats.Brightness > 180:
		parts = append(parts, "bright/well-lit")
	case stats.Brightness < 60:
		parts = append(parts, "dark/moody")
	}

	if stats.Contrast > 50 {
		parts = append(parts, "high contrast")
	}
	if stats.Colorfulness > 80 {
		parts = append(parts, "vibrant colors")
	}
	if stats.EdgeDensity > 25 {
		parts = append(parts, "visually complex")
	}

	return strings.Join(parts, clauseSeparator)
}
