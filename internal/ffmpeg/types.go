package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration // container duration
	Frames     int64         // nb_frames of the video stream, 0 if unknown
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasVideo   bool
	HasAudio   bool
	AudioCodec string
}

// Seconds returns the timeline length. The frame count is preferred over the
// container duration when both the count and the frame rate are known.
func (v *VideoInfo) Seconds() float64 {
	if v.Frames > 0 && v.FPS > 0 {
		return float64(v.Frames) / v.FPS
	}
	return v.Duration.Seconds()
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called periodically with progress information as the operation executes.
type ProgressFunc func(*Progress)
