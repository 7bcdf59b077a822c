// Package highlights selects the best moments under a duration budget and
// merges them into non-overlapping highlight ranges.
package highlights

import (
	"math"
	"slices"
	"sort"

	"github.com/kikiluvv/slopreel/internal/moments"
)

const (
	// MinHighlightScore is the lowest rating considered for a highlight
	MinHighlightScore = 7

	// LeadIn is the padding added before each selected moment
	LeadIn = 0.5

	// MergeGap is the largest gap between two ranges that still merges them
	MergeGap = 0.5
)

// Select runs the full selection for one analysis and returns the
// keep_only_highlights action. With no moment rated MinHighlightScore or
// higher the action carries an empty range list.
func Select(ms []moments.MomentAnalysis, cfg Config) Action {
	return KeepOnly(MergeRanges(Ranges(Choose(ms, cfg))))
}

// Choose greedily accepts moments in descending score order (ties keep
// their input order) while the clamped durations fit the target. Once the
// running total reaches the target no further moment is considered. The
// result is sorted by timestamp and each SuggestedDuration is replaced by its
// clamped value.
func Choose(ms []moments.MomentAnalysis, cfg Config) []moments.MomentAnalysis {
	candidates := make([]moments.MomentAnalysis, 0, len(ms))
	for _, m := range ms {
		if m.InterestScore >= MinHighlightScore {
			candidates = append(candidates, m)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].InterestScore > candidates[j].InterestScore
	})

	selected := make([]moments.MomentAnalysis, 0, len(candidates))
	var total float64
	for _, m := range candidates {
		clip := cfg.ClampClip(m.SuggestedDuration)
		if total+clip <= cfg.TargetDuration {
			m.SuggestedDuration = clip
			selected = append(selected, m)
			total += clip
		}
		if total >= cfg.TargetDuration {
			break
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp < selected[j].Timestamp
	})
	return selected
}

// Ranges maps selected moments to raw ranges with LeadIn padding, floored
// at the start of the timeline.
func Ranges(selected []moments.MomentAnalysis) []Range {
	out := make([]Range, 0, len(selected))
	for _, m := range selected {
		out = append(out, Range{
			Start: math.Max(0, m.Timestamp-LeadIn),
			End:   m.Timestamp + m.SuggestedDuration,
		})
	}
	return out
}

// MergeRanges orders ranges by start and folds every range that starts no
// later than MergeGap after the current range's end into it. The output has
// gaps strictly greater than MergeGap, so merging it again is a no-op.
func MergeRanges(ranges []Range) []Range {
	merged := make([]Range, 0, len(ranges))
	if len(ranges) == 0 {
		return merged
	}

	sorted := slices.Clone(ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	current := sorted[0]
	for _, r := range sorted[1:] {
		if r.Start <= current.End+MergeGap {
			current.End = math.Max(current.End, r.End)
			continue
		}
		merged = append(merged, current)
		current = r
	}

	return append(merged, current)
}
