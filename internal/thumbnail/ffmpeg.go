package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegSource reads frames from a local file or URL with the ffmpeg binary.
type FFmpegSource struct {
	Path string
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration probes the container, the server-side stand-in for loadedmetadata.
func (s FFmpegSource) Duration(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out, err := ffmpeg.Probe(s.Path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", s.Path, err)
	}
	var res probeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(res.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", res.Format.Duration, err)
	}
	return d, nil
}

// Frame seeks to t and decodes a single frame piped out as MJPEG.
func (s FFmpegSource) Frame(ctx context.Context, t float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := ffmpeg.Input(s.Path, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", t)}).
		Output("pipe:", ffmpeg.KwArgs{"vframes": 1, "format": "image2", "vcodec": "mjpeg"}).
		WithOutput(&buf).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %.2fs: %w", t, err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode frame at %.2fs: %w", t, err)
	}
	return img, nil
}
