package ffmpeg

import (
	"fmt"
	"strings"
)

// DramaticGrade is the colour grade behind the "dramatic" highlight filter:
// punchier contrast, slightly darker, with a soft vignette.
const DramaticGrade = "eq=contrast=1.25:brightness=-0.03:saturation=1.15,vignette=PI/5"

// FilterBuilder helps construct complex ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// FadeIn adds a video fade from black over duration seconds starting at start
func (fb *FilterBuilder) FadeIn(start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=in:st=%.3f:d=%.3f", start, duration))
	return fb
}

// FadeOut adds a video fade to black over duration seconds starting at start
func (fb *FilterBuilder) FadeOut(start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", start, duration))
	return fb
}

// AudioFadeIn adds an afade in; use it on an audio chain
func (fb *FilterBuilder) AudioFadeIn(start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("afade=t=in:st=%.3f:d=%.3f", start, duration))
	return fb
}

// AudioFadeOut adds an afade out; use it on an audio chain
func (fb *FilterBuilder) AudioFadeOut(start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", start, duration))
	return fb
}

// Dramatic adds DramaticGrade
func (fb *FilterBuilder) Dramatic() *FilterBuilder {
	return fb.Custom(DramaticGrade)
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	if filter == "" {
		return fb
	}
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}
