package moments

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/slopreel/internal/vision"
)

// fakeVideo serves synthetic frames and records every seek
type fakeVideo struct {
	duration float64
	fps      float64
	failAt   float64 // first seek position >= failAt fails; 0 disables
	failErr  error
	frame    func(t float64) image.Image
	reads    []float64
	onRead   func(t float64)
}

func (f *fakeVideo) Duration() float64  { return f.duration }
func (f *fakeVideo) FrameRate() float64 { return f.fps }
func (f *fakeVideo) Close() error       { return nil }

func (f *fakeVideo) ReadFrameAt(_ context.Context, t float64) (image.Image, error) {
	f.reads = append(f.reads, t)
	if f.onRead != nil {
		f.onRead(t)
	}
	if f.failAt > 0 && t >= f.failAt {
		return nil, f.failErr
	}
	return f.frame(t), nil
}

func grayFrame(v uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func wavyFrame(shift float64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, vision.CanonicalWidth, vision.CanonicalHeight))
	for y := 0; y < vision.CanonicalHeight; y++ {
		for x := 0; x < vision.CanonicalWidth; x++ {
			v := 128 + 60*math.Sin((float64(x)-shift)/7) + 60*math.Cos(float64(y)/9)
			g := uint8(math.Round(v))
			img.SetRGBA(x, y, color.RGBA{g, g, g, 255})
		}
	}
	return img
}

func TestSampler_WalksTimeline(t *testing.T) {
	video := &fakeVideo{
		duration: 25,
		frame:    func(float64) image.Image { return grayFrame(130) },
	}

	got, err := Collect(context.Background(), NewSampler(zerolog.Nop(), video, 10))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []float64{0, 10, 20}, []float64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
	assert.Equal(t, []float64{0, 10, 20}, video.reads)

	for _, m := range got {
		// uniform mid-grey: brightness term only
		assert.Equal(t, 2, m.InterestScore)
		assert.Equal(t, 2.0, m.SuggestedDuration)
		assert.Equal(t, "static scene", m.Reason)
	}
}

func TestSampler_ExcludesTimelineEnd(t *testing.T) {
	video := &fakeVideo{duration: 20, frame: func(float64) image.Image { return grayFrame(10) }}

	got, err := Collect(context.Background(), NewSampler(zerolog.Nop(), video, 10))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSampler_DecodeFailureKeepsPartialResults(t *testing.T) {
	decodeErr := errors.New("corrupt packet")
	video := &fakeVideo{
		duration: 100,
		failAt:   30,
		failErr:  decodeErr,
		frame:    func(float64) image.Image { return grayFrame(200) },
	}

	s := NewSampler(zerolog.Nop(), video, 10)
	got, err := Collect(context.Background(), s)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.ErrorIs(t, s.Stopped(), decodeErr)
}

func TestSampler_EndOfStream(t *testing.T) {
	video := &fakeVideo{
		duration: 100,
		failAt:   50,
		failErr:  ErrEndOfStream,
		frame:    func(float64) image.Image { return grayFrame(90) },
	}

	s := NewSampler(zerolog.Nop(), video, 25)
	got, err := Collect(context.Background(), s)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.ErrorIs(t, s.Stopped(), ErrEndOfStream)
}

func TestSampler_NotRestartable(t *testing.T) {
	video := &fakeVideo{duration: 5, frame: func(float64) image.Image { return grayFrame(90) }}
	s := NewSampler(zerolog.Nop(), video, 10)

	assert.True(t, s.Next(context.Background()))
	assert.False(t, s.Next(context.Background()))
	assert.False(t, s.Next(context.Background()))
	assert.Len(t, video.reads, 1)
}

func TestSampler_CancellationReturnsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	video := &fakeVideo{
		duration: 100,
		frame:    func(float64) image.Image { return grayFrame(90) },
	}
	video.onRead = func(t float64) {
		if t >= 20 {
			cancel()
		}
	}

	// the frame read while cancelling still completes; the next step stops
	got, err := Collect(ctx, NewSampler(zerolog.Nop(), video, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, got, 3)
}

func TestSampler_ThreadsPreviousFrameForMotion(t *testing.T) {
	video := &fakeVideo{
		duration: 3,
		frame:    func(t float64) image.Image { return wavyFrame(2 * t) },
	}

	s := NewSampler(zerolog.Nop(), video, 1)

	require.True(t, s.Next(context.Background()))
	assert.Equal(t, 0.0, s.Statistics().MotionScore)

	require.True(t, s.Next(context.Background()))
	assert.Greater(t, s.Statistics().MotionScore, 0.0)
}

func TestSampler_SeeksToFrameBoundary(t *testing.T) {
	video := &fakeVideo{
		duration: 1.2,
		fps:      3,
		frame:    func(float64) image.Image { return grayFrame(90) },
	}

	got, err := Collect(context.Background(), NewSampler(zerolog.Nop(), video, 0.5))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 1.0}, video.reads, 1e-9)
	assert.Equal(t, []float64{0, 0.5, 1.0}, []float64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
}

func TestSampler_RejectsNonPositiveInterval(t *testing.T) {
	video := &fakeVideo{duration: 10, frame: func(float64) image.Image { return grayFrame(90) }}

	got, err := Collect(context.Background(), NewSampler(zerolog.Nop(), video, 0))
	assert.Error(t, err)
	assert.Empty(t, got)
	assert.Empty(t, video.reads)
}

func TestSampler_MalformedFrameIsAnError(t *testing.T) {
	video := &fakeVideo{duration: 10, frame: func(float64) image.Image { return image.NewRGBA(image.Rect(0, 0, 0, 0)) }}

	_, err := Collect(context.Background(), NewSampler(zerolog.Nop(), video, 5))
	assert.ErrorIs(t, err, vision.ErrInvalidFrame)
}

func TestSeekTime(t *testing.T) {
	assert.Equal(t, 7.5, SeekTime(7.5, 0))
	assert.InDelta(t, 1.0/3, SeekTime(0.5, 3), 1e-12)
	assert.Equal(t, 3.0, SeekTime(3, 10))
	assert.InDelta(t, 2.9, SeekTime(2.9, 10), 1e-12)
	assert.InDelta(t, 299.0/29.97, SeekTime(10, 29.97), 1e-12)
}
