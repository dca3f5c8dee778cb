// Package thumbnail renders the strip of preview frames shown under the timeline.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

var ErrNoDuration = errors.New("video duration is not known yet")

// FrameSource yields decoded video frames. Frame blocks until the frame at t
// is available or ctx is done.
type FrameSource interface {
	Duration(ctx context.Context) (float64, error)
	Frame(ctx context.Context, t float64) (image.Image, error)
}

// Options controls the size and quality of the strip.
type Options struct {
	Count   int
	Width   uint
	Height  uint
	Quality int
}

// DefaultOptions gives 30 frames of 120x68 at JPEG quality 70.
func DefaultOptions() Options {
	return Options{Count: 30, Width: 120, Height: 68, Quality: 70}
}

// Thumbnail is one encoded frame of the strip.
type Thumbnail struct {
	Time    float64 `json:"time"`
	DataURL string  `json:"dataUrl"`
}

// Plan returns count timestamps, one at the centre of each equal slice of the video.
func Plan(duration float64, count int) []float64 {
	if duration <= 0 || count <= 0 {
		return nil
	}
	step := duration / float64(count)
	out := make([]float64, count)
	for i := range out {
		out[i] = (float64(i) + 0.5) * step
	}
	return out
}

// Generate captures, downscales and encodes the strip. Frames that fail to
// decode are skipped; cancellation stops the whole run.
func Generate(ctx context.Context, src FrameSource, opts Options, log zerolog.Logger) ([]Thumbnail, error) {
	duration, err := src.Duration(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	if duration <= 0 {
		return nil, ErrNoDuration
	}

	times := Plan(duration, opts.Count)
	out := make([]Thumbnail, 0, len(times))
	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		frame, err := src.Frame(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			log.Warn().Err(err).Float64("time", t).Msg("skipping thumbnail frame")
			continue
		}
		url, err := Encode(frame, opts)
		if err != nil {
			return out, fmt.Errorf("encode frame at %.2fs: %w", t, err)
		}
		out = append(out, Thumbnail{Time: t, DataURL: url})
	}
	log.Debug().Int("frames", len(out)).Float64("duration", duration).Msg("thumbnails generated")
	return out, nil
}

// Encode scales img to the configured size and returns it as a JPEG data URL.
func Encode(img image.Image, opts Options) (string, error) {
	small := resize.Resize(opts.Width, opts.Height, img, resize.Bilinear)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
