// Package keyframes extracts JPEG thumbnails along a video timeline.
package keyframes

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopreel/internal/moments"
	"github.com/kikiluvv/slopreel/internal/vision"
	"github.com/kikiluvv/slopreel/pkg/util"
)

// DefaultQuality is the JPEG quality of extracted keyframes
const DefaultQuality = 70

// Keyframe is one canonical-size thumbnail
type Keyframe struct {
	Timestamp   float64 `json:"timestamp"`
	ImageBase64 string  `json:"image_base64"`
	PHash       string  `json:"phash"`
}

// Options controls extraction
type Options struct {
	Interval float64 // seconds between keyframes
	Quality  int     // JPEG quality, DefaultQuality when 0

	// MinDistance drops a keyframe whose perceptual hash differs from the
	// last kept one by fewer bits. 0 keeps every keyframe.
	MinDistance int
}

// Extract walks handle at opts.Interval and encodes one keyframe per step.
// A failed read ends the walk early; the keyframes gathered so far are kept.
func Extract(ctx context.Context, logger zerolog.Logger, handle moments.VideoHandle, opts Options) ([]Keyframe, error) {
	if !(opts.Interval > 0) {
		return nil, fmt.Errorf("keyframe interval must be positive, got %v", opts.Interval)
	}
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within 1-100, got %d", quality)
	}

	logger = logger.With().Str("component", "keyframes").Logger()
	duration := handle.Duration()
	fps := handle.FrameRate()

	out := make([]Keyframe, 0)
	var last *goimagehash.ImageHash

	for step := 0; ; step++ {
		t := float64(step) * opts.Interval
		if t >= duration {
			break
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		frame, err := handle.ReadFrameAt(ctx, moments.SeekTime(t, fps))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			logger.Debug().Err(err).Float64("timestamp", t).Msg("keyframe read stopped")
			break
		}

		img, err := vision.Canonicalize(frame)
		if err != nil {
			return out, fmt.Errorf("keyframe at %.2fs: %w", t, err)
		}

		hash, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return out, fmt.Errorf("failed to compute pHash: %w", err)
		}
		if last != nil && opts.MinDistance > 0 && distance(last, hash) < opts.MinDistance {
			logger.Debug().Float64("timestamp", t).Msg("skipping near-duplicate keyframe")
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return out, fmt.Errorf("encode keyframe at %.2fs: %w", t, err)
		}

		out = append(out, Keyframe{
			Timestamp:   util.RoundTo(t, 2),
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
			PHash:       fmt.Sprintf("%016x", hash.GetHash()),
		})
		last = hash
	}

	logger.Info().Int("keyframes", len(out)).Float64("interval", opts.Interval).Msg("keyframes extracted")
	return out, nil
}

// Distance returns the Hamming distance between two hex pHashes
func Distance(a, b string) (int, error) {
	x, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid phash %q: %w", a, err)
	}
	y, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid phash %q: %w", b, err)
	}
	return bits.OnesCount64(x ^ y), nil
}

func distance(a, b *goimagehash.ImageHash) int {
	return bits.OnesCount64(a.GetHash() ^ b.GetHash())
}
