package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func skipIfNoEncoder(t *testing.T, name string) {
	t.Helper()
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil || !strings.Contains(string(out), name) {
		t.Skipf("ffmpeg built without %s", name)
	}
}

// generateTestVideo writes a 2s 320x240@30 test pattern with a sine tone
func generateTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "sine=frequency=1000:duration=2",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-shortest", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func newTestExecutor(t *testing.T, opts Options) *Executor {
	t.Helper()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	e, err := New(logger, opts)
	require.NoError(t, err)
	return e
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := newTestExecutor(t, Options{Threads: 2})
	assert.NotEmpty(t, e.ffmpegPath)
	assert.NotEmpty(t, e.ffprobePath)
	t.Logf("ffmpeg: %s", e.ffmpegPath)
	t.Logf("ffprobe: %s", e.ffprobePath)
}

func TestExecutorCreation_MissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{BinaryPath: "/nonexistent/ffmpeg"})
	assert.Error(t, err)
}

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
			 "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "300"},
			{"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 240, "r_frame_rate": "90000/1"}
		],
		"format": {"duration": "10.500000", "bit_rate": "4000000"}
	}`)

	info, err := parseProbe("in.mp4", raw)
	require.NoError(t, err)

	assert.True(t, info.HasVideo)
	assert.True(t, info.HasAudio)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.InDelta(t, 29.97, info.FPS, 0.001)
	assert.Equal(t, int64(300), info.Frames)
	assert.Equal(t, int64(4000000), info.Bitrate)
	assert.Equal(t, 10500*time.Millisecond, info.Duration)

	// frame count wins over the container duration
	assert.InDelta(t, 10.01, info.Seconds(), 0.001)
}

func TestParseProbe_FallsBackToContainerDuration(t *testing.T) {
	raw := []byte(`{"streams": [{"codec_type": "video", "r_frame_rate": "0/0", "avg_frame_rate": "25/1"}],
		"format": {"duration": "42.5"}}`)

	info, err := parseProbe("in.mkv", raw)
	require.NoError(t, err)
	assert.Equal(t, 25.0, info.FPS)
	assert.Equal(t, int64(0), info.Frames)
	assert.Equal(t, 42.5, info.Seconds())
}

func TestParseProbe_Invalid(t *testing.T) {
	_, err := parseProbe("x", []byte("not json"))
	assert.Error(t, err)
}

func TestFilterBuilder(t *testing.T) {
	filter := NewFilterBuilder().Scale(1920, 1080).FadeIn(0, 0.5).FadeOut(3.5, 0.5).Build()
	assert.Equal(t, "scale=1920:1080,fade=t=in:st=0.000:d=0.500,fade=t=out:st=3.500:d=0.500", filter)
}

func TestFilterBuilderEmpty(t *testing.T) {
	assert.Equal(t, "", NewFilterBuilder().Build())
	assert.Equal(t, "", NewFilterBuilder().Scale(0, 720).FadeIn(0, 0).Custom("").Build())
}

func TestFilterBuilderAudioAndGrade(t *testing.T) {
	audio := NewFilterBuilder().AudioFadeIn(0, 0.25).AudioFadeOut(1.75, 0.25).Build()
	assert.Equal(t, "afade=t=in:st=0.000:d=0.250,afade=t=out:st=1.750:d=0.250", audio)

	video := NewFilterBuilder().Dramatic().Build()
	assert.Equal(t, DramaticGrade, video)
}

func TestVideoOpenError(t *testing.T) {
	cause := errors.New("moov atom not found")
	var err error = &VideoOpenError{Path: "broken.mp4", Err: cause}

	assert.ErrorIs(t, err, ErrVideoOpen)
	assert.ErrorIs(t, err, cause)

	var openErr *VideoOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, "broken.mp4", openErr.Path)
	assert.Contains(t, err.Error(), "broken.mp4")
}

func TestExtractClipValidation(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	ctx := context.Background()

	err := e.ExtractClip(ctx, "in.mp4", ClipOptions{Start: time.Second, End: time.Second, Output: "out.mp4"})
	assert.Error(t, err)

	err = e.ExtractClip(ctx, "in.mp4", ClipOptions{End: time.Second})
	assert.Error(t, err)

	err = e.ExtractClip(ctx, "in.mp4", ClipOptions{End: time.Second, Output: "out.mp4", CopyCodec: true, VideoFilter: "fade"})
	assert.Error(t, err)
}

func TestConcatValidation(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}

	assert.Error(t, e.Concat(context.Background(), ConcatOptions{Output: "out.mp4"}))
	assert.Error(t, e.Concat(context.Background(), ConcatOptions{Inputs: []string{"a.mp4"}}))
}

func TestCreateConcatFileQuotesPaths(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	dir := t.TempDir()

	list, err := e.createConcatFile(dir, []string{"/clips/it's.mp4"})
	require.NoError(t, err)

	data, err := os.ReadFile(list)
	require.NoError(t, err)
	assert.Equal(t, "file '/clips/it'\\''s.mp4'\n", string(data))
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateTestVideo(t)

	e := newTestExecutor(t, Options{Threads: 2})

	start := time.Now()
	info, err := e.ProbeVideo(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.InDelta(t, 30.0, info.FPS, 0.01)
	assert.True(t, info.HasAudio)
	assert.InDelta(t, 2.0, info.Seconds(), 0.1)

	t.Logf("Video info: %dx%d, %.2f fps, %d frames, duration: %v (probed in %v)",
		info.Width, info.Height, info.FPS, info.Frames, info.Duration, time.Since(start))
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)
	e := newTestExecutor(t, Options{})
	ctx := context.Background()

	_, err := e.ProbeVideo(ctx, "nonexistent.mp4")
	assert.Error(t, err)

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	require.NoError(t, os.WriteFile(invalidPath, []byte("not a video"), 0644))

	_, err = e.ProbeVideo(ctx, invalidPath)
	assert.Error(t, err)
}

func TestOpenAndReadFrames(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateTestVideo(t)

	e := newTestExecutor(t, Options{Threads: 2, FrameTimeout: 30 * time.Second})
	ctx := context.Background()

	src, err := e.Open(ctx, path)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, src.Duration(), 0.1)
	assert.InDelta(t, 30.0, src.FrameRate(), 0.01)

	img, err := src.ReadFrameAt(ctx, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	// past the last frame there is nothing to decode
	_, err = src.ReadFrameAt(ctx, 30)
	assert.Error(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = src.ReadFrameAt(ctx, 0)
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestOpenMissingVideo(t *testing.T) {
	skipIfNoFFmpeg(t)
	e := newTestExecutor(t, Options{})

	_, err := e.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, ErrVideoOpen)
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.mp4")
	require.NoError(t, os.WriteFile(garbage, []byte("not a video"), 0644))
	_, err = e.Open(context.Background(), garbage)
	assert.ErrorIs(t, err, ErrVideoOpen)
}

func TestExtractClipAndConcat(t *testing.T) {
	skipIfNoFFmpeg(t)
	skipIfNoEncoder(t, "libx264")
	path := generateTestVideo(t)

	e := newTestExecutor(t, Options{Threads: 2})
	ctx := context.Background()
	dir := t.TempDir()

	clips := []string{filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")}
	bounds := [][2]time.Duration{{0, 800 * time.Millisecond}, {time.Second, 1800 * time.Millisecond}}

	for i, out := range clips {
		err := e.ExtractClip(ctx, path, ClipOptions{
			Start:       bounds[i][0],
			End:         bounds[i][1],
			Output:      out,
			VideoFilter: NewFilterBuilder().FadeIn(0, 0.2).FadeOut(0.6, 0.2).Dramatic().Build(),
			AudioFilter: NewFilterBuilder().AudioFadeIn(0, 0.2).AudioFadeOut(0.6, 0.2).Build(),
			Preset:      "ultrafast",
		})
		require.NoError(t, err)
	}

	output := filepath.Join(dir, "reel.mp4")
	require.NoError(t, e.Concat(ctx, ConcatOptions{Inputs: clips, Output: output, TempDir: dir}))

	info, err := e.ProbeVideo(ctx, output)
	require.NoError(t, err)
	assert.InDelta(t, 1.6, info.Duration.Seconds(), 0.3)
}
