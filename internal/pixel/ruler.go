// internal/pixel/ruler.go
package pixel

import "math"

// Tick is one labelled mark on the time ruler.
type Tick struct {
	Time  float64 `json:"time"`
	X     float64 `json:"x"`
	Label string  `json:"label"`
}

var tickIntervals = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300, 600}

// Ticks returns ruler marks spaced at least minSpacing pixels apart, using the
// smallest interval from a fixed ladder that satisfies that spacing.
func Ticks(s Scale, minSpacing float64) []Tick {
	if s.Duration <= 0 || s.TrackWidth() <= 0 {
		return nil
	}
	pxPerSecond := s.TrackWidth() / s.Duration
	interval := tickIntervals[len(tickIntervals)-1]
	for _, iv := range tickIntervals {
		if iv*pxPerSecond >= minSpacing {
			interval = iv
			break
		}
	}
	n := int(math.Floor(s.Duration/interval + 1e-9))
	ticks := make([]Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) * interval
		ticks = append(ticks, Tick{Time: t, X: TimeToPixels(t, s), Label: FormatTimecode(t)})
	}
	return ticks
}
