// internal/timeline/options.go
package timeline

// OverlapPolicy decides what happens when two segments would share time.
type OverlapPolicy string

const (
	// OverlapBlock rejects edits that make segments overlap.
	OverlapBlock OverlapPolicy = "block"
	// OverlapWarn accepts them; Overlaps reports the offenders for display.
	OverlapWarn OverlapPolicy = "warn"
)

// Options are the store's tunable constants.
type Options struct {
	MinEffectDuration  float64
	MinSegmentDuration float64
	MaxHistory         int
	SegmentOverlap     OverlapPolicy
}

// DefaultOptions returns the editor defaults: 0.1s effects, 0.5s segments,
// 50 history snapshots, overlapping segments blocked.
func DefaultOptions() Options {
	return Options{
		MinEffectDuration:  0.1,
		MinSegmentDuration: 0.5,
		MaxHistory:         50,
		SegmentOverlap:     OverlapBlock,
	}
}

// MinDuration returns the shortest allowed region of the given kind.
func (o Options) MinDuration(k Kind) float64 {
	if k == KindSegment {
		return o.MinSegmentDuration
	}
	return o.MinEffectDuration
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinEffectDuration <= 0 {
		o.MinEffectDuration = d.MinEffectDuration
	}
	if o.MinSegmentDuration <= 0 {
		o.MinSegmentDuration = d.MinSegmentDuration
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = d.MaxHistory
	}
	if o.SegmentOverlap != OverlapWarn {
		o.SegmentOverlap = OverlapBlock
	}
	return o
}
