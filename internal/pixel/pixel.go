// Package pixel converts between timeline seconds and on-screen positions.
//
// Every visual surface (ruler, thumbnail strip, region track) goes through the
// same Scale so a timestamp lands on the same x everywhere.
package pixel

import (
	"fmt"
	"math"
)

// Scale describes one rendering of the timeline.
type Scale struct {
	Duration       float64 `json:"duration"`
	Zoom           float64 `json:"zoom"`
	ContainerWidth float64 `json:"containerWidth"`
}

// TrackWidth is the rendered width shared by all timeline surfaces.
func (s Scale) TrackWidth() float64 {
	return s.ContainerWidth * s.Zoom
}

// TimeToPixels maps seconds to an x offset. It returns 0 when the duration is unknown.
func TimeToPixels(t float64, s Scale) float64 {
	if s.Duration <= 0 {
		return 0
	}
	return (t / s.Duration) * s.TrackWidth()
}

// PixelsToTime is the inverse of TimeToPixels. Clamping is left to the caller.
func PixelsToTime(px float64, s Scale) float64 {
	w := s.TrackWidth()
	if s.Duration <= 0 || w <= 0 {
		return 0
	}
	return (px / w) * s.Duration
}

// ProgressPercentage returns how far t is through the video, in [0,100].
func ProgressPercentage(t, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return Clamp(t/duration*100, 0, 100)
}

// ClampTime keeps t inside [0,duration].
func ClampTime(t, duration float64) float64 {
	return Clamp(t, 0, duration)
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// FormatTimecode renders seconds as M:SS.t for ruler and playhead labels.
func FormatTimecode(t float64) string {
	if t < 0 {
		t = 0
	}
	tenths := int(math.Round(t * 10))
	minutes := tenths / 600
	seconds := (tenths % 600) / 10
	return fmt.Sprintf("%d:%02d.%d", minutes, seconds, tenths%10)
}
