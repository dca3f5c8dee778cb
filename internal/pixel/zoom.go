// internal/pixel/zoom.go
package pixel

import (
	"fmt"
	"math"
)

// ZoomConfig bounds the user-adjustable zoom factor.
type ZoomConfig struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// DefaultZoom is 0.5x to 5x in 0.1 steps, starting at 1:1.
func DefaultZoom() ZoomConfig {
	return ZoomConfig{Min: 0.5, Max: 5.0, Step: 0.1, Default: 1.0}
}

// Clamp bounds z to the configured range and snaps it to the step grid.
func (c ZoomConfig) Clamp(z float64) float64 {
	if c.Step > 0 {
		z = math.Round(z/c.Step) * c.Step
		// trim float noise such as 1.2000000000000002
		z = math.Round(z*1e6) / 1e6
	}
	return Clamp(z, c.Min, c.Max)
}

// In returns the next zoom level up.
func (c ZoomConfig) In(z float64) float64 { return c.Clamp(z + c.Step) }

// Out returns the next zoom level down.
func (c ZoomConfig) Out(z float64) float64 { return c.Clamp(z - c.Step) }

// Label is the zoom as shown in the toolbar: "1:1" at the default, "2.5x" otherwise.
func (c ZoomConfig) Label(z float64) string {
	if math.Abs(z-c.Default) < 1e-9 {
		return "1:1"
	}
	return fmt.Sprintf("%.1fx", z)
}
