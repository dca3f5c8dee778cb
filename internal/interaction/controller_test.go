package interaction

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/lisperz/Test1-frazo-sub001/internal/pixel"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/rs/zerolog"
)

type recordingPlayer struct {
	seeks []float64
}

func (p *recordingPlayer) Seek(t float64) { p.seeks = append(p.seeks, t) }

// newTestController builds a 10s timeline rendered 1000px wide, so 100px is one second.
func newTestController(t *testing.T) (*Controller, *recordingPlayer) {
	t.Helper()
	s := timeline.New(timeline.DefaultOptions(), zerolog.Nop())
	if err := s.LoadVideo(10); err != nil {
		t.Fatalf("LoadVideo() error = %v", err)
	}
	p := &recordingPlayer{}
	return New(s, p, pixel.DefaultZoom(), 1000, zerolog.Nop()), p
}

func addSegment(t *testing.T, c *Controller, start, end float64, audio *timeline.AudioInput) timeline.Region {
	t.Helper()
	if audio == nil {
		audio = &timeline.AudioInput{RefID: "voice-1", FileName: "voice.mp3"}
	}
	r, err := c.Store().Add(timeline.Region{Kind: timeline.KindSegment, StartTime: start, EndTime: end, Audio: audio})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	return r
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBodyDragClampsAtVideoStart(t *testing.T) {
	c, _ := newTestController(t)
	seg := addSegment(t, c, 0, 4, nil)

	// grab the middle of the segment, then pull left past 0s
	if err := c.PointerDown(TargetBody, seg.ID, 200); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	got, err := c.PointerMove(0)
	if err != nil {
		t.Fatalf("PointerMove() error = %v", err)
	}
	c.PointerUp()

	if got.StartTime != 0 || got.EndTime != 4 {
		t.Errorf("dragged segment = [%v,%v], want [0,4]", got.StartTime, got.EndTime)
	}
}

func TestBodyDragStopsAtNeighbour(t *testing.T) {
	c, _ := newTestController(t)
	a := addSegment(t, c, 1, 3, nil)
	addSegment(t, c, 5, 7, nil)

	got, err := c.MoveTo(a.ID, 4.5)
	if err != nil {
		t.Fatalf("MoveTo() error = %v", err)
	}
	if !approx(got.StartTime, 3) || !approx(got.EndTime, 5) {
		t.Errorf("moved segment = [%v,%v], want [3,5]", got.StartTime, got.EndTime)
	}
}

func TestBodyDragFlushAgainstNeighbourAtFractionalTimes(t *testing.T) {
	// starts accumulate float noise on purpose: 0.3, 0.6, 0.8999999999999999, ...
	for start := 0.0; start < 6; start += 0.3 {
		t.Run(fmt.Sprintf("start %.1f", start), func(t *testing.T) {
			c, _ := newTestController(t)
			seg := addSegment(t, c, start, start+0.6, nil)
			wall := start + 0.9
			addSegment(t, c, wall, 10, nil)

			got, err := c.MoveTo(seg.ID, 9)
			if err != nil {
				t.Fatalf("MoveTo() into neighbour error = %v", err)
			}
			if got.EndTime != wall {
				t.Errorf("EndTime = %v, want flush with neighbour at %v", got.EndTime, wall)
			}
			if !approx(got.Length(), 0.6) {
				t.Errorf("length = %v, want 0.6", got.Length())
			}

			back, err := c.MoveTo(seg.ID, -3)
			if err != nil {
				t.Fatalf("MoveTo() back to start error = %v", err)
			}
			if back.StartTime != 0 {
				t.Errorf("StartTime = %v, want 0", back.StartTime)
			}
		})
	}
}

func TestRandomEditsKeepTimelineValid(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 25; round++ {
		c, _ := newTestController(t)
		var ids []string
		at := rng.Float64() * 0.5
		for len(ids) < 5 && at+0.5 < 10 {
			end := math.Min(at+0.5+rng.Float64()*1.5, 10)
			ids = append(ids, addSegment(t, c, at, end, nil).ID)
			at = end + rng.Float64()*0.7
		}

		for step := 0; step < 200; step++ {
			id := ids[rng.Intn(len(ids))]
			target := rng.Float64()*12 - 1
			var (
				op  string
				err error
			)
			switch rng.Intn(4) {
			case 0:
				op = "move"
				_, err = c.MoveTo(id, target)
			case 1:
				op = "resize start"
				_, err = c.ResizeStartTo(id, target)
			case 2:
				op = "resize end"
				_, err = c.ResizeEndTo(id, target)
			default:
				op = "update"
				r, _ := c.Store().Region(id)
				_, err = c.Store().Update(id, timeline.Patch{
					StartTime: timeline.Float(target),
					EndTime:   timeline.Float(target + r.Length()),
				})
				// typed times are validated, not clamped
				if errors.Is(err, timeline.ErrOverlap) || errors.Is(err, timeline.ErrInvalidRange) {
					err = nil
				}
			}
			if err != nil {
				t.Fatalf("round %d step %d: %s to %v rejected: %v", round, step, op, target, err)
			}
			assertTimelineValid(t, c.Store())
		}
	}
}

// assertTimelineValid checks segment order, labels, bounds, minimum length
// and that no two segments overlap.
func assertTimelineValid(t *testing.T, s *timeline.Store) {
	t.Helper()
	minLen := s.Options().MinSegmentDuration
	var prev *timeline.Region
	n := 0
	for _, r := range s.Regions() {
		if r.Kind != timeline.KindSegment {
			continue
		}
		n++
		if want := fmt.Sprintf("Segment %d", n); r.Label != want {
			t.Fatalf("segment at %v labelled %q, want %q", r.StartTime, r.Label, want)
		}
		if r.StartTime < 0 || r.EndTime > s.Duration()+1e-9 || r.Length()+1e-9 < minLen {
			t.Fatalf("segment out of bounds: [%v,%v]", r.StartTime, r.EndTime)
		}
		if prev != nil && prev.EndTime > r.StartTime+1e-9 {
			t.Fatalf("segments overlap: [%v,%v] and [%v,%v]", prev.StartTime, prev.EndTime, r.StartTime, r.EndTime)
		}
		r := r
		prev = &r
	}
}

func TestMoveShiftsAudioCrop(t *testing.T) {
	c, _ := newTestController(t)
	audio := &timeline.AudioInput{RefID: "voice-1", StartTime: timeline.Float(1), EndTime: timeline.Float(5), Duration: timeline.Float(30)}
	seg := addSegment(t, c, 2, 6, audio)

	got, err := c.MoveTo(seg.ID, 4)
	if err != nil {
		t.Fatalf("MoveTo() error = %v", err)
	}
	if !approx(*got.Audio.StartTime, 3) || !approx(*got.Audio.EndTime, 7) {
		t.Errorf("audio crop = [%v,%v], want [3,7]", *got.Audio.StartTime, *got.Audio.EndTime)
	}
}

func TestMoveKeepsCropLengthAtFileStart(t *testing.T) {
	c, _ := newTestController(t)
	audio := &timeline.AudioInput{RefID: "voice-1", StartTime: timeline.Float(1), EndTime: timeline.Float(5), Duration: timeline.Float(30)}
	seg := addSegment(t, c, 4, 8, audio)

	got, err := c.MoveTo(seg.ID, 0)
	if err != nil {
		t.Fatalf("MoveTo() error = %v", err)
	}
	crop := *got.Audio.EndTime - *got.Audio.StartTime
	if !approx(*got.Audio.StartTime, 0) || !approx(crop, 4) {
		t.Errorf("audio crop = [%v,%v], want [0,4]", *got.Audio.StartTime, *got.Audio.EndTime)
	}
}

func TestResizeHandles(t *testing.T) {
	c, _ := newTestController(t)
	a := addSegment(t, c, 1, 3, nil)
	b := addSegment(t, c, 5, 7, nil)

	got, err := c.ResizeEndTo(a.ID, 9)
	if err != nil {
		t.Fatalf("ResizeEndTo() error = %v", err)
	}
	if !approx(got.EndTime, 5) {
		t.Errorf("end after resize = %v, want 5 (next segment start)", got.EndTime)
	}

	got, err = c.ResizeStartTo(b.ID, 6.9)
	if err != nil {
		t.Fatalf("ResizeStartTo() error = %v", err)
	}
	if !approx(got.StartTime, 6.5) {
		t.Errorf("start after resize = %v, want 6.5 (minimum segment length)", got.StartTime)
	}

	got, err = c.ResizeStartTo(b.ID, 0)
	if err != nil {
		t.Fatalf("ResizeStartTo() error = %v", err)
	}
	if !approx(got.StartTime, 5) {
		t.Errorf("start after resize = %v, want 5 (previous segment end)", got.StartTime)
	}
}

func TestResizeEndLimitedByAudioFile(t *testing.T) {
	c, _ := newTestController(t)
	audio := &timeline.AudioInput{RefID: "voice-1", Duration: timeline.Float(6)}
	seg := addSegment(t, c, 1, 3, audio)

	got, err := c.ResizeEndTo(seg.ID, 9)
	if err != nil {
		t.Fatalf("ResizeEndTo() error = %v", err)
	}
	if !approx(got.EndTime, 6) {
		t.Errorf("end = %v, want 6", got.EndTime)
	}
}

func TestDragIsOneHistoryEntry(t *testing.T) {
	c, _ := newTestController(t)
	seg := addSegment(t, c, 1, 3, nil)
	before := c.Store().HistoryLen()

	if err := c.PointerDown(TargetEndHandle, seg.ID, 300); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	for _, px := range []float64{350, 420, 480} {
		if _, err := c.PointerMove(px); err != nil {
			t.Fatalf("PointerMove(%v) error = %v", px, err)
		}
	}
	c.PointerUp()

	if got := c.Store().HistoryLen(); got != before+1 {
		t.Errorf("HistoryLen() = %d, want %d", got, before+1)
	}
	r, _ := c.Store().Region(seg.ID)
	if !approx(r.EndTime, 4.8) {
		t.Errorf("EndTime = %v, want 4.8", r.EndTime)
	}
	if ok, _ := c.Undo(); !ok {
		t.Fatal("Undo() = false")
	}
	r, _ = c.Store().Region(seg.ID)
	if r.EndTime != 3 {
		t.Errorf("EndTime after undo = %v, want 3", r.EndTime)
	}
}

func TestPointerDownSelectsRegion(t *testing.T) {
	c, _ := newTestController(t)
	seg := addSegment(t, c, 1, 3, nil)

	if err := c.PointerDown(TargetBody, seg.ID, 150); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if got := c.Store().Editing(); got != seg.ID {
		t.Errorf("Editing() = %q, want %q", got, seg.ID)
	}
	if err := c.PointerDown(TargetBody, seg.ID, 150); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("second PointerDown() error = %v, want %v", err, ErrGestureInProgress)
	}
	c.PointerUp()
	if c.Dragging() {
		t.Error("Dragging() = true after PointerUp")
	}
}

func TestPointerDownUnknownRegion(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.PointerDown(TargetBody, "missing", 0); !errors.Is(err, timeline.ErrUnknownID) {
		t.Errorf("PointerDown() error = %v, want %v", err, timeline.ErrUnknownID)
	}
	if _, err := c.PointerMove(10); !errors.Is(err, ErrNoGesture) {
		t.Errorf("PointerMove() error = %v, want %v", err, ErrNoGesture)
	}
}

func TestRulerDragSeeksOnly(t *testing.T) {
	c, p := newTestController(t)
	addSegment(t, c, 1, 3, nil)
	before := c.Store().HistoryLen()

	if err := c.PointerDown(TargetRuler, "", 250); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if _, err := c.PointerMove(2000); err != nil {
		t.Fatalf("PointerMove() error = %v", err)
	}
	c.PointerUp()

	if len(p.seeks) != 2 || !approx(p.seeks[0], 2.5) || p.seeks[1] != 10 {
		t.Errorf("seeks = %v, want [2.5 10]", p.seeks)
	}
	if c.Store().CurrentTime() != 0 {
		t.Errorf("CurrentTime() = %v, want 0 until the player reports back", c.Store().CurrentTime())
	}
	if c.Store().HistoryLen() != before {
		t.Error("ruler drag touched history")
	}
}

func TestSeekUsesZoomedScale(t *testing.T) {
	c, p := newTestController(t)
	c.SetViewport(1000, 2)

	if err := c.PointerDown(TargetRuler, "", 500); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	c.PointerUp()
	if len(p.seeks) != 1 || !approx(p.seeks[0], 2.5) {
		t.Errorf("seeks = %v, want [2.5]", p.seeks)
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	c, _ := newTestController(t)
	addSegment(t, c, 0, 4, nil)

	c.Store().SetCurrentTime(0.2)
	if c.CanSplit() {
		t.Error("CanSplit() = true with a 0.2s first half")
	}
	_, err := c.SplitAtPlayhead()
	if !errors.Is(err, timeline.ErrBelowMinimumDuration) {
		t.Fatalf("SplitAtPlayhead() error = %v, want %v", err, timeline.ErrBelowMinimumDuration)
	}

	c.Store().SetCurrentTime(2)
	if !c.CanSplit() {
		t.Fatal("CanSplit() = false at 2s")
	}
	halves, err := c.SplitAtPlayhead()
	if err != nil {
		t.Fatalf("SplitAtPlayhead() error = %v", err)
	}
	if halves[0].EndTime != 2 || halves[1].StartTime != 2 {
		t.Errorf("halves = %+v", halves)
	}
	if halves[0].Label != "Segment 1" || halves[1].Label != "Segment 2" {
		t.Errorf("labels = %q, %q", halves[0].Label, halves[1].Label)
	}
}

func TestSplitRefusedWhileDragging(t *testing.T) {
	c, _ := newTestController(t)
	seg := addSegment(t, c, 0, 4, nil)
	c.Store().SetCurrentTime(2)

	if err := c.PointerDown(TargetBody, seg.ID, 100); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if c.CanSplit() {
		t.Error("CanSplit() = true during a drag")
	}
	if _, err := c.SplitAtPlayhead(); !errors.Is(err, ErrGestureInProgress) {
		t.Errorf("SplitAtPlayhead() error = %v, want %v", err, ErrGestureInProgress)
	}
}

func TestDeleteSelected(t *testing.T) {
	c, _ := newTestController(t)
	seg := addSegment(t, c, 0, 4, nil)

	if err := c.DeleteSelected(); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("DeleteSelected() error = %v, want %v", err, ErrNothingSelected)
	}
	if err := c.Store().Select(seg.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteSelected(); err != nil {
		t.Fatalf("DeleteSelected() error = %v", err)
	}
	if n := len(c.Store().Regions()); n != 0 {
		t.Errorf("len(Regions()) = %d, want 0", n)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   Shortcut
		want Action
	}{
		{Shortcut{Key: "z", Ctrl: true}, ActionUndo},
		{Shortcut{Key: "z", Meta: true}, ActionUndo},
		{Shortcut{Key: "Z", Ctrl: true, Shift: true}, ActionRedo},
		{Shortcut{Key: "y", Ctrl: true}, ActionRedo},
		{Shortcut{Key: "s"}, ActionSplit},
		{Shortcut{Key: "s", Ctrl: true}, ActionNone},
		{Shortcut{Key: "Delete"}, ActionDelete},
		{Shortcut{Key: "Backspace"}, ActionDelete},
		{Shortcut{Key: "="}, ActionZoomIn},
		{Shortcut{Key: "+"}, ActionZoomIn},
		{Shortcut{Key: "-"}, ActionZoomOut},
		{Shortcut{Key: "q"}, ActionNone},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandleKey(t *testing.T) {
	c, _ := newTestController(t)
	addSegment(t, c, 0, 4, nil)

	if _, err := c.HandleKey(Shortcut{Key: "z", Ctrl: true}); err != nil {
		t.Fatalf("undo error = %v", err)
	}
	if n := len(c.Store().Regions()); n != 0 {
		t.Errorf("regions after undo = %d, want 0", n)
	}
	if _, err := c.HandleKey(Shortcut{Key: "z", Ctrl: true, Shift: true}); err != nil {
		t.Fatalf("redo error = %v", err)
	}
	if n := len(c.Store().Regions()); n != 1 {
		t.Errorf("regions after redo = %d, want 1", n)
	}

	c.HandleKey(Shortcut{Key: "="})
	if got := c.Zoom(); !approx(got, 1.1) {
		t.Errorf("Zoom() = %v, want 1.1", got)
	}
	for i := 0; i < 20; i++ {
		c.HandleKey(Shortcut{Key: "-"})
	}
	if got := c.Zoom(); got != 0.5 {
		t.Errorf("Zoom() = %v, want 0.5", got)
	}
}

func TestFeedbackFor(t *testing.T) {
	if FeedbackFor(nil) != nil {
		t.Error("FeedbackFor(nil) != nil")
	}
	c, _ := newTestController(t)
	c.Store().SetCurrentTime(5)
	_, err := c.SplitAtPlayhead()
	fb := FeedbackFor(err)
	if fb == nil || fb.Level != "warning" || !strings.Contains(fb.Message, "no region under the playhead") {
		t.Errorf("FeedbackFor(%v) = %+v", err, fb)
	}
	fb = FeedbackFor(errors.New("disk full"))
	if fb.Level != "error" || fb.Message != "disk full" {
		t.Errorf("FeedbackFor(disk full) = %+v", fb)
	}
}
