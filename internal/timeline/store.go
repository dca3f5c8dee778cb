// internal/timeline/store.go
package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Store is the authoritative region state of one editing session.
//
// It is not safe for concurrent use. Callers confine every call for a given
// session to a single goroutine or guard it with one lock.
type Store struct {
	opts Options
	log  zerolog.Logger

	regions     []Region
	duration    float64
	currentTime float64
	editingID   string

	hist *history

	// A gesture groups mutations into a single history entry.
	inGesture     bool
	gesturePushed bool

	newID func() string
}

// New creates an empty store. No video is loaded until LoadVideo is called.
func New(opts Options, log zerolog.Logger) *Store {
	opts = opts.normalized()
	return &Store{
		opts:  opts,
		log:   log.With().Str("component", "timeline").Logger(),
		hist:  newHistory(opts.MaxHistory, nil),
		newID: func() string { return ulid.Make().String() },
	}
}

// Options returns the constants the store was built with.
func (s *Store) Options() Options { return s.opts }

// LoadVideo starts over for a new video: regions, history and selection are dropped.
func (s *Store) LoadVideo(duration float64) error {
	if !(duration > 0) || math.IsInf(duration, 1) {
		return fmt.Errorf("%w: video duration must be positive, got %.2fs", ErrInvalidRange, duration)
	}
	s.duration = duration
	s.currentTime = 0
	s.reset(nil)
	return nil
}

// Restore replaces the whole state with a previously exported document and makes
// it the bottom of the history.
func (s *Store) Restore(doc Document) error {
	if !(doc.VideoDuration > 0) || math.IsInf(doc.VideoDuration, 1) {
		return fmt.Errorf("%w: video duration must be positive, got %.2fs", ErrInvalidRange, doc.VideoDuration)
	}
	prev := s.duration
	s.duration = doc.VideoDuration
	if err := s.checkDocument(doc.Regions); err != nil {
		s.duration = prev
		return err
	}
	s.currentTime = clamp(s.currentTime, 0, s.duration)
	s.reset(doc.Regions)
	return nil
}

// checkDocument applies the rules Add enforces to a whole region set at once.
func (s *Store) checkDocument(regions []Region) error {
	seen := make(map[string]bool, len(regions))
	accepted := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.ID != "" {
			if seen[r.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidRegion, r.ID)
			}
			seen[r.ID] = true
		}
		if err := r.validateShape(); err != nil {
			return fmt.Errorf("region %s: %w", r.ID, err)
		}
		if err := s.validatePlacement(r.StartTime, r.EndTime, r.Kind); err != nil {
			return fmt.Errorf("region %s: %w", r.ID, err)
		}
		if err := s.checkOverlap(accepted, r.StartTime, r.EndTime, r.Kind, ""); err != nil {
			return fmt.Errorf("region %s: %w", r.ID, err)
		}
		accepted = append(accepted, r)
	}
	return nil
}

func (s *Store) reset(regions []Region) {
	s.regions = cloneRegions(regions)
	for i := range s.regions {
		if s.regions[i].ID == "" {
			s.regions[i].ID = s.newID()
		}
	}
	s.sort()
	s.relabel()
	s.editingID = ""
	s.inGesture, s.gesturePushed = false, false
	s.hist = newHistory(s.opts.MaxHistory, s.regions)
}

// Document returns a serializable copy of the current state.
func (s *Store) Document() Document {
	return Document{VideoDuration: s.duration, Regions: s.Regions()}
}

// Duration is the loaded video's length in seconds, 0 when none is loaded.
func (s *Store) Duration() float64 { return s.duration }

// CurrentTime is the last playhead position reported by the player.
func (s *Store) CurrentTime() float64 { return s.currentTime }

// SetCurrentTime records the player's playhead. The player's progress callback
// is meant to be the only caller.
func (s *Store) SetCurrentTime(t float64) {
	if math.IsNaN(t) {
		return
	}
	s.currentTime = clamp(t, 0, s.duration)
}

// Regions returns a copy of all regions ordered by start time.
func (s *Store) Regions() []Region {
	return cloneRegions(s.regions)
}

// Region looks a region up by id.
func (s *Store) Region(id string) (Region, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.regions[i].clone(), true
	}
	return Region{}, false
}

// Select marks a region as the one being edited; an empty id clears the selection.
func (s *Store) Select(id string) error {
	if id != "" && s.indexOf(id) < 0 {
		s.log.Warn().Str("region_id", id).Msg("select: unknown region")
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	s.editingID = id
	return nil
}

// Editing returns the id of the selected region, or "".
func (s *Store) Editing() string { return s.editingID }

// Add validates and appends a region. An empty ID is filled in.
func (s *Store) Add(r Region) (Region, error) {
	if s.duration <= 0 {
		return Region{}, ErrNoVideo
	}
	r = r.clone()
	if r.ID == "" {
		r.ID = s.newID()
	} else if s.indexOf(r.ID) >= 0 {
		return Region{}, fmt.Errorf("%w: id %s already exists", ErrInvalidRegion, r.ID)
	}
	if err := r.validateShape(); err != nil {
		return Region{}, err
	}
	if err := s.ValidateTimes(r.StartTime, r.EndTime, r.Kind, ""); err != nil {
		return Region{}, err
	}
	s.regions = append(s.regions, r)
	s.sort()
	s.relabel()
	s.commit()
	added, _ := s.Region(r.ID)
	return added, nil
}

// Update merges a patch into the region with the given id. Unknown ids leave the
// store untouched and are logged.
func (s *Store) Update(id string, p Patch) (Region, error) {
	i := s.indexOf(id)
	if i < 0 {
		s.log.Warn().Str("region_id", id).Msg("update: unknown region")
		return Region{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	next := p.apply(s.regions[i].clone())
	if err := next.validateShape(); err != nil {
		return Region{}, err
	}
	if err := s.ValidateTimes(next.StartTime, next.EndTime, next.Kind, id); err != nil {
		return Region{}, err
	}
	s.regions[i] = next
	s.sort()
	if p.Label == nil {
		s.relabel()
	}
	s.commit()
	updated, _ := s.Region(id)
	return updated, nil
}

// Delete removes a region and clears the selection if it pointed at it.
func (s *Store) Delete(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		s.log.Warn().Str("region_id", id).Msg("delete: unknown region")
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	s.regions = append(s.regions[:i], s.regions[i+1:]...)
	if s.editingID == id {
		s.editingID = ""
	}
	s.relabel()
	s.commit()
	return nil
}

// Clear removes every region. It is undoable.
func (s *Store) Clear() {
	s.regions = nil
	s.editingID = ""
	s.commit()
}

// RegionAt returns the region a split at t would cut: the selected region if it
// contains t, otherwise the first segment, otherwise the first effect.
func (s *Store) RegionAt(t float64) (Region, bool) {
	if i := s.indexOf(s.editingID); i >= 0 && s.regions[i].Contains(t) {
		return s.regions[i].clone(), true
	}
	var effect *Region
	for i := range s.regions {
		r := &s.regions[i]
		if !r.Contains(t) {
			continue
		}
		if r.Kind == KindSegment {
			return r.clone(), true
		}
		if effect == nil {
			effect = r
		}
	}
	if effect != nil {
		return effect.clone(), true
	}
	return Region{}, false
}

// CheckSplit reports why SplitAt(t) would fail, or nil if it would succeed.
func (s *Store) CheckSplit(t float64) error {
	_, err := s.planSplit(t)
	return err
}

func (s *Store) planSplit(t float64) ([2]Region, error) {
	var halves [2]Region
	r, ok := s.RegionAt(t)
	if !ok {
		return halves, fmt.Errorf("%w: nothing to split at %.2fs", ErrNoRegionAtTime, t)
	}
	minLen := s.opts.MinDuration(r.Kind)
	if first := t - r.StartTime; first+epsilon < minLen {
		return halves, fmt.Errorf("%w: the first half would be %.2fs, shorter than the %.2fs minimum", ErrBelowMinimumDuration, first, minLen)
	}
	if second := r.EndTime - t; second+epsilon < minLen {
		return halves, fmt.Errorf("%w: the second half would be %.2fs, shorter than the %.2fs minimum", ErrBelowMinimumDuration, second, minLen)
	}

	left, right := r.clone(), r.clone()
	left.ID, right.ID = s.newID(), s.newID()
	left.EndTime = t
	right.StartTime = t

	if r.Audio.HasCrop() {
		ratio := (t - r.StartTime) / r.Length()
		as, ae := *r.Audio.StartTime, *r.Audio.EndTime
		cut := as + ratio*(ae-as)
		left.Audio.EndTime = Float(cut)
		right.Audio.StartTime = Float(cut)
	}
	halves[0], halves[1] = left, right
	return halves, nil
}

// SplitAt cuts the region under t into [start,t] and [t,end]. An audio crop
// window is divided at the same ratio so lip sync survives the cut.
func (s *Store) SplitAt(t float64) ([2]Region, error) {
	halves, err := s.planSplit(t)
	if err != nil {
		return halves, err
	}
	// planSplit resolved the region through RegionAt; find it the same way.
	orig, _ := s.RegionAt(t)
	i := s.indexOf(orig.ID)
	s.regions = append(s.regions[:i], s.regions[i+1:]...)
	s.regions = append(s.regions, halves[0], halves[1])
	if s.editingID == orig.ID {
		s.editingID = ""
	}
	s.sort()
	s.relabel()
	s.commit()

	left, _ := s.Region(halves[0].ID)
	right, _ := s.Region(halves[1].ID)
	return [2]Region{left, right}, nil
}

// Undo steps back one snapshot. It returns false at the oldest snapshot.
func (s *Store) Undo() bool {
	s.EndGesture()
	snap, ok := s.hist.undo()
	if !ok {
		return false
	}
	s.regions = snap
	s.editingID = ""
	return true
}

// Redo steps forward one snapshot. It returns false at the newest snapshot.
func (s *Store) Redo() bool {
	s.EndGesture()
	snap, ok := s.hist.redo()
	if !ok {
		return false
	}
	s.regions = snap
	s.editingID = ""
	return true
}

// CanUndo reports whether Undo would do anything.
func (s *Store) CanUndo() bool { return s.hist.canUndo() }

// CanRedo reports whether Redo would do anything.
func (s *Store) CanRedo() bool { return s.hist.canRedo() }

// HistoryLen is the number of snapshots currently kept, including the present one.
func (s *Store) HistoryLen() int { return s.hist.len() }

// BeginGesture starts coalescing: every mutation until EndGesture shares one
// history entry.
func (s *Store) BeginGesture() {
	s.inGesture = true
	s.gesturePushed = false
}

// EndGesture closes the current gesture. The last state stays as it is.
func (s *Store) EndGesture() {
	s.inGesture = false
	s.gesturePushed = false
}

// ValidateTimes checks that [start,end] is a legal placement for a region of the
// given kind. excludeID skips one region in the overlap check, for edits of an
// existing region.
func (s *Store) ValidateTimes(start, end float64, kind Kind, excludeID string) error {
	if err := s.validatePlacement(start, end, kind); err != nil {
		return err
	}
	return s.checkOverlap(s.regions, start, end, kind, excludeID)
}

// checkOverlap rejects a segment placement that collides with another segment
// under the blocking policy. Edges within epsilon of each other only touch.
func (s *Store) checkOverlap(regions []Region, start, end float64, kind Kind, excludeID string) error {
	if kind != KindSegment || s.opts.SegmentOverlap != OverlapBlock {
		return nil
	}
	for _, other := range regions {
		if other.ID == excludeID || other.Kind != KindSegment {
			continue
		}
		if start < other.EndTime-epsilon && other.StartTime < end-epsilon {
			return fmt.Errorf("%w: %.2fs–%.2fs collides with %s (%.2fs–%.2fs)",
				ErrOverlap, start, end, displayName(other), other.StartTime, other.EndTime)
		}
	}
	return nil
}

func (s *Store) validatePlacement(start, end float64, kind Kind) error {
	if s.duration <= 0 {
		return ErrNoVideo
	}
	switch {
	case math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0):
		return fmt.Errorf("%w: times must be finite numbers", ErrInvalidRange)
	case start >= end:
		return fmt.Errorf("%w: start %.2fs must be before end %.2fs", ErrInvalidRange, start, end)
	case start < 0:
		return fmt.Errorf("%w: start %.2fs is before the beginning of the video", ErrInvalidRange, start)
	case end > s.duration+epsilon:
		return fmt.Errorf("%w: end %.2fs is past the end of the video (%.2fs)", ErrInvalidRange, end, s.duration)
	}
	if minLen := s.opts.MinDuration(kind); end-start+epsilon < minLen {
		return fmt.Errorf("%w: %s must last at least %.2fs, got %.2fs", ErrBelowMinimumDuration, kind, minLen, end-start)
	}
	return nil
}

func (s *Store) commit() {
	if s.inGesture && s.gesturePushed {
		s.hist.replace(s.regions)
		return
	}
	s.hist.push(s.regions)
	if s.inGesture {
		s.gesturePushed = true
	}
}

func (s *Store) sort() {
	sort.SliceStable(s.regions, func(i, j int) bool {
		return s.regions[i].StartTime < s.regions[j].StartTime
	})
}

// relabel names segments "Segment 1", "Segment 2", ... in start order.
func (s *Store) relabel() {
	n := 0
	for i := range s.regions {
		if s.regions[i].Kind != KindSegment {
			continue
		}
		n++
		s.regions[i].Label = fmt.Sprintf("Segment %d", n)
	}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.regions {
		if s.regions[i].ID == id {
			return i
		}
	}
	return -1
}

func displayName(r Region) string {
	if r.Label != "" {
		return r.Label
	}
	return string(r.Kind) + " " + r.ID
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
