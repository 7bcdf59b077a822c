package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sampling Metrics
	FramesSampledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slopreel_frames_sampled_total",
			Help: "Total number of frames decoded and scored",
		},
	)

	FrameReadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slopreel_frame_read_failures_total",
			Help: "Frame reads that stopped sampling early",
		},
		[]string{"reason"},
	)

	MomentScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slopreel_moment_interest_score",
			Help:    "Distribution of per-moment interest ratings",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1..10
		},
	)

	// Analysis Metrics
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slopreel_analyses_total",
			Help: "Total number of video analyses",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slopreel_analysis_duration_seconds",
			Help:    "Wall-clock time of a full video analysis",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17 minutes
		},
	)

	HighlightRanges = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slopreel_highlight_ranges",
			Help:    "Number of merged highlight ranges per analysis",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	HighlightSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slopreel_highlight_seconds",
			Help:    "Total length of the merged highlight ranges per analysis",
			Buckets: []float64{0, 5, 10, 20, 30, 60, 120},
		},
	)

	// Render Metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slopreel_renders_total",
			Help: "Total number of highlight renders",
		},
		[]string{"status"},
	)
)

// Read failure reasons
const (
	ReasonEndOfStream = "end_of_stream"
	ReasonDecodeError = "decode_error"
)

// Analysis and render outcomes
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusInvalid   = "invalid"
)

// RecordFrame records one scored frame
func RecordFrame(score int) {
	FramesSampledTotal.Inc()
	MomentScore.Observe(float64(score))
}

// RecordReadFailure records the reason sampling halted before the timeline end
func RecordReadFailure(reason string) {
	FrameReadFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordAnalysis records a finished analysis
func RecordAnalysis(status string, duration float64, ranges int, highlightSeconds float64) {
	AnalysesTotal.WithLabelValues(status).Inc()
	AnalysisDuration.Observe(duration)
	HighlightRanges.Observe(float64(ranges))
	HighlightSeconds.Observe(highlightSeconds)
}

// RecordRender records a finished render
func RecordRender(status string) {
	RendersTotal.WithLabelValues(status).Inc()
}

// WriteTextfile dumps the default registry in the node-exporter textfile
// format, for batch runs that have no scrape endpoint.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
