// internal/timeline/region.go
package timeline

import "fmt"

// Kind identifies what a region does to the video.
type Kind string

const (
	KindErasure    Kind = "erasure"
	KindProtection Kind = "protection"
	KindText       Kind = "text"
	KindSegment    Kind = "segment"
)

// IsEffect reports whether the kind is a visual effect drawn over the frame.
func (k Kind) IsEffect() bool {
	return k == KindErasure || k == KindProtection || k == KindText
}

func (k Kind) valid() bool {
	return k.IsEffect() || k == KindSegment
}

// Rect is a rectangle normalized to the displayed video frame, all fields in [0,1].
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) validate() error {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: rectangle must have a non-negative origin and a positive size", ErrInvalidRegion)
	}
	if r.X+r.Width > 1+epsilon || r.Y+r.Height > 1+epsilon {
		return fmt.Errorf("%w: rectangle extends outside the video frame", ErrInvalidRegion)
	}
	return nil
}

// AudioInput is the audio asset attached to a lip-sync segment.
//
// StartTime and EndTime crop the audio file on its own timeline; when either is
// nil the whole file is used. Duration is the full length of the file if known.
type AudioInput struct {
	RefID     string   `json:"refId"`
	FileName  string   `json:"fileName,omitempty"`
	FileSize  int64    `json:"fileSize,omitempty"`
	StartTime *float64 `json:"startTime,omitempty"`
	EndTime   *float64 `json:"endTime,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// HasCrop reports whether both crop bounds are set.
func (a *AudioInput) HasCrop() bool {
	return a != nil && a.StartTime != nil && a.EndTime != nil
}

// Clone returns a deep copy; nil stays nil.
func (a *AudioInput) Clone() *AudioInput {
	if a == nil {
		return nil
	}
	c := *a
	c.StartTime = copyFloat(a.StartTime)
	c.EndTime = copyFloat(a.EndTime)
	c.Duration = copyFloat(a.Duration)
	return &c
}

func (a *AudioInput) validate() error {
	if a.RefID == "" {
		return fmt.Errorf("%w: audio input needs a refId", ErrInvalidRegion)
	}
	if a.Duration != nil && *a.Duration <= 0 {
		return fmt.Errorf("%w: audio duration must be positive", ErrInvalidRange)
	}
	if a.StartTime != nil && *a.StartTime < 0 {
		return fmt.Errorf("%w: audio crop cannot start before 0s", ErrInvalidRange)
	}
	if a.HasCrop() && *a.StartTime >= *a.EndTime {
		return fmt.Errorf("%w: audio crop start %.2fs must be before its end %.2fs", ErrInvalidRange, *a.StartTime, *a.EndTime)
	}
	if a.EndTime != nil && a.Duration != nil && *a.EndTime > *a.Duration+epsilon {
		return fmt.Errorf("%w: audio crop ends at %.2fs but the file is only %.2fs long", ErrInvalidRange, *a.EndTime, *a.Duration)
	}
	return nil
}

// Region is a time-bounded interval over the video. Effects carry Rect,
// segments carry Audio.
type Region struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	StartTime float64     `json:"startTime"`
	EndTime   float64     `json:"endTime"`
	Rect      *Rect       `json:"region,omitempty"`
	Audio     *AudioInput `json:"audioInput,omitempty"`
	Label     string      `json:"label,omitempty"`
}

// Length is the region's duration in seconds.
func (r Region) Length() float64 {
	return r.EndTime - r.StartTime
}

// Contains reports whether t falls strictly inside the region.
func (r Region) Contains(t float64) bool {
	return r.StartTime < t && t < r.EndTime
}

func (r Region) clone() Region {
	c := r
	if r.Rect != nil {
		rect := *r.Rect
		c.Rect = &rect
	}
	c.Audio = r.Audio.Clone()
	return c
}

// validateShape checks everything about a region except its placement on the timeline.
func (r Region) validateShape() error {
	if !r.Kind.valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRegion, r.Kind)
	}
	if r.Kind.IsEffect() {
		if r.Rect == nil {
			return fmt.Errorf("%w: %s effect needs a frame rectangle", ErrInvalidRegion, r.Kind)
		}
		if r.Audio != nil {
			return fmt.Errorf("%w: effects cannot carry audio", ErrInvalidRegion)
		}
		return r.Rect.validate()
	}
	if r.Audio == nil {
		return fmt.Errorf("%w: segment needs an audio input", ErrInvalidRegion)
	}
	return r.Audio.validate()
}

// Patch is a typed partial update. Nil fields are left untouched.
type Patch struct {
	StartTime *float64
	EndTime   *float64
	Rect      *Rect
	Audio     *AudioInput
	Label     *string
}

func (p Patch) apply(r Region) Region {
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.Rect != nil {
		rect := *p.Rect
		r.Rect = &rect
	}
	if p.Audio != nil {
		r.Audio = p.Audio.Clone()
	}
	if p.Label != nil {
		r.Label = *p.Label
	}
	return r
}

// Float returns a pointer to v, for building patches and audio crops.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRegions(in []Region) []Region {
	out := make([]Region, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}
