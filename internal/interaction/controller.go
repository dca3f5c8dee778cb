// Package interaction turns pointer and keyboard input into timeline edits.
package interaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/lisperz/Test1-frazo-sub001/internal/pixel"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/rs/zerolog"
)

var (
	ErrGestureInProgress = errors.New("another drag is in progress")
	ErrNoGesture         = errors.New("no drag in progress")
	ErrNothingSelected   = errors.New("no region selected")
)

// Target is the part of the timeline a drag started on.
type Target string

const (
	TargetBody        Target = "body"
	TargetStartHandle Target = "start"
	TargetEndHandle   Target = "end"
	// TargetRuler covers the time ruler and the thumbnail strip; dragging there only seeks.
	TargetRuler Target = "ruler"
)

// Player is the video element the controller can seek. The player reports the
// resulting position back through Store.SetCurrentTime.
type Player interface {
	Seek(t float64)
}

type drag struct {
	target Target
	origin timeline.Region
	// grab is the pointer's offset from the region start at pointer-down.
	grab float64
}

// Controller owns the viewport and the in-flight gesture for one store.
type Controller struct {
	store  *timeline.Store
	player Player
	log    zerolog.Logger

	zoomCfg        pixel.ZoomConfig
	zoom           float64
	containerWidth float64

	drag *drag
}

// New wires a controller to a store and a player.
func New(store *timeline.Store, player Player, zoomCfg pixel.ZoomConfig, containerWidth float64, log zerolog.Logger) *Controller {
	return &Controller{
		store:          store,
		player:         player,
		log:            log.With().Str("component", "interaction").Logger(),
		zoomCfg:        zoomCfg,
		zoom:           zoomCfg.Default,
		containerWidth: containerWidth,
	}
}

// Store returns the store the controller edits.
func (c *Controller) Store() *timeline.Store { return c.store }

// Scale is the current time/pixel mapping shared by every surface.
func (c *Controller) Scale() pixel.Scale {
	return pixel.Scale{
		Duration:       c.store.Duration(),
		Zoom:           c.zoom,
		ContainerWidth: c.containerWidth,
	}
}

// ZoomConfig returns the zoom bounds in use.
func (c *Controller) ZoomConfig() pixel.ZoomConfig { return c.zoomCfg }

// SetViewport records the nominal container width and zoom level.
func (c *Controller) SetViewport(containerWidth, zoom float64) {
	if containerWidth > 0 {
		c.containerWidth = containerWidth
	}
	c.zoom = c.zoomCfg.Clamp(zoom)
}

// Zoom is the current zoom factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// ZoomIn steps the zoom up by one configured step.
func (c *Controller) ZoomIn() { c.zoom = c.zoomCfg.In(c.zoom) }

// ZoomOut steps the zoom down by one configured step.
func (c *Controller) ZoomOut() { c.zoom = c.zoomCfg.Out(c.zoom) }

// Dragging reports whether a gesture is open.
func (c *Controller) Dragging() bool { return c.drag != nil }

// PointerDown starts a gesture. Region targets select the region and open a
// history gesture so the whole drag becomes one undo step.
func (c *Controller) PointerDown(target Target, regionID string, px float64) error {
	if c.drag != nil {
		return ErrGestureInProgress
	}
	if target == TargetRuler {
		c.drag = &drag{target: target}
		c.seekPixels(px)
		return nil
	}
	switch target {
	case TargetBody, TargetStartHandle, TargetEndHandle:
	default:
		return fmt.Errorf("unknown drag target %q", target)
	}
	r, ok := c.store.Region(regionID)
	if !ok {
		c.log.Warn().Str("region_id", regionID).Msg("pointer down on unknown region")
		return fmt.Errorf("%w: %s", timeline.ErrUnknownID, regionID)
	}
	if err := c.store.Select(regionID); err != nil {
		return err
	}
	c.store.BeginGesture()
	c.drag = &drag{
		target: target,
		origin: r,
		grab:   c.pointerTime(px) - r.StartTime,
	}
	return nil
}

// PointerMove applies the gesture at the new pointer position. Out-of-range
// positions are clamped. For ruler drags the returned region is empty.
func (c *Controller) PointerMove(px float64) (timeline.Region, error) {
	if c.drag == nil {
		return timeline.Region{}, ErrNoGesture
	}
	t := c.pointerTime(px)
	switch c.drag.target {
	case TargetRuler:
		c.seekPixels(px)
		return timeline.Region{}, nil
	case TargetBody:
		return c.move(c.drag.origin, t-c.drag.grab)
	case TargetStartHandle:
		return c.resizeStart(c.drag.origin, t)
	default:
		return c.resizeEnd(c.drag.origin, t)
	}
}

// PointerUp ends the gesture. Whatever the last move produced stays.
func (c *Controller) PointerUp() {
	if c.drag == nil {
		return
	}
	if c.drag.target != TargetRuler {
		c.store.EndGesture()
	}
	c.drag = nil
}

// MoveTo moves a region so it starts at start, keeping its length. It is the
// single-step form of a body drag.
func (c *Controller) MoveTo(id string, start float64) (timeline.Region, error) {
	r, ok := c.store.Region(id)
	if !ok {
		return timeline.Region{}, fmt.Errorf("%w: %s", timeline.ErrUnknownID, id)
	}
	return c.move(r, start)
}

// ResizeStartTo is the single-step form of a start-handle drag.
func (c *Controller) ResizeStartTo(id string, start float64) (timeline.Region, error) {
	r, ok := c.store.Region(id)
	if !ok {
		return timeline.Region{}, fmt.Errorf("%w: %s", timeline.ErrUnknownID, id)
	}
	return c.resizeStart(r, start)
}

// ResizeEndTo is the single-step form of an end-handle drag.
func (c *Controller) ResizeEndTo(id string, end float64) (timeline.Region, error) {
	r, ok := c.store.Region(id)
	if !ok {
		return timeline.Region{}, fmt.Errorf("%w: %s", timeline.ErrUnknownID, id)
	}
	return c.resizeEnd(r, end)
}

func (c *Controller) move(origin timeline.Region, start float64) (timeline.Region, error) {
	length := origin.Length()
	lo, hi := c.freeSpan(origin)
	start = pixel.Clamp(start, lo, math.Max(lo, hi-length))
	end := start + length
	if start == hi-length {
		// flush against the limit: hi-length+length can round past hi
		end = hi
	}
	delta := start - origin.StartTime

	p := timeline.Patch{
		StartTime: timeline.Float(start),
		EndTime:   timeline.Float(end),
	}
	if a := origin.Audio; a != nil && (a.StartTime != nil || a.EndTime != nil) {
		p.Audio = shiftCrop(a, delta)
	}
	return c.store.Update(origin.ID, p)
}

func (c *Controller) resizeStart(origin timeline.Region, pointer float64) (timeline.Region, error) {
	minLen := c.store.Options().MinDuration(origin.Kind)
	lo, _ := c.freeSpan(origin)
	start := math.Max(math.Min(pointer, origin.EndTime-minLen), lo)
	delta := start - origin.StartTime

	p := timeline.Patch{StartTime: timeline.Float(start)}
	if a := origin.Audio; a != nil && a.StartTime != nil {
		upper := audioLimit(a)
		if a.EndTime != nil {
			upper = math.Min(upper, *a.EndTime-minLen)
		}
		next := a.Clone()
		next.StartTime = timeline.Float(pixel.Clamp(*a.StartTime+delta, 0, math.Max(0, upper)))
		p.Audio = next
	}
	return c.store.Update(origin.ID, p)
}

func (c *Controller) resizeEnd(origin timeline.Region, pointer float64) (timeline.Region, error) {
	minLen := c.store.Options().MinDuration(origin.Kind)
	_, hi := c.freeSpan(origin)
	if a := origin.Audio; a != nil && a.Duration != nil {
		// never ask for more audio than the file holds
		hi = math.Min(hi, *a.Duration)
	}
	end := math.Min(math.Max(pointer, origin.StartTime+minLen), hi)
	if end < origin.StartTime+minLen {
		end = origin.EndTime
	}
	delta := end - origin.EndTime

	p := timeline.Patch{EndTime: timeline.Float(end)}
	if a := origin.Audio; a != nil && a.EndTime != nil {
		lower := 0.0
		if a.StartTime != nil {
			lower = *a.StartTime + minLen
		}
		next := a.Clone()
		next.EndTime = timeline.Float(pixel.Clamp(*a.EndTime+delta, math.Min(lower, *a.EndTime), audioLimit(a)))
		p.Audio = next
	}
	return c.store.Update(origin.ID, p)
}

// edgeTolerance treats neighbours whose edges differ by float noise as touching.
const edgeTolerance = 1e-9

// freeSpan is the interval a region may occupy: the whole video, or for
// segments under the blocking policy the gap between its neighbours.
func (c *Controller) freeSpan(r timeline.Region) (lo, hi float64) {
	lo, hi = 0, c.store.Duration()
	if r.Kind != timeline.KindSegment || c.store.Options().SegmentOverlap != timeline.OverlapBlock {
		return lo, hi
	}
	for _, other := range c.store.Regions() {
		if other.ID == r.ID || other.Kind != timeline.KindSegment {
			continue
		}
		if other.EndTime <= r.StartTime+edgeTolerance && other.EndTime > lo {
			lo = other.EndTime
		}
		if other.StartTime >= r.EndTime-edgeTolerance && other.StartTime < hi {
			hi = other.StartTime
		}
	}
	return lo, hi
}

// shiftCrop moves the crop bounds by delta, kept inside [0, audio duration].
// A full window is shifted as a unit so its length is preserved.
func shiftCrop(a *timeline.AudioInput, delta float64) *timeline.AudioInput {
	next := a.Clone()
	limit := audioLimit(a)
	if a.HasCrop() {
		delta = pixel.Clamp(delta, -*a.StartTime, math.Max(0, limit-*a.EndTime))
		next.StartTime = timeline.Float(*a.StartTime + delta)
		next.EndTime = timeline.Float(*a.EndTime + delta)
		return next
	}
	if a.StartTime != nil {
		next.StartTime = timeline.Float(pixel.Clamp(*a.StartTime+delta, 0, limit))
	}
	if a.EndTime != nil {
		next.EndTime = timeline.Float(pixel.Clamp(*a.EndTime+delta, 0, limit))
	}
	return next
}

func audioLimit(a *timeline.AudioInput) float64 {
	if a.Duration != nil {
		return *a.Duration
	}
	return math.Inf(1)
}

func (c *Controller) pointerTime(px float64) float64 {
	return pixel.PixelsToTime(px, c.Scale())
}

func (c *Controller) seekPixels(px float64) {
	c.Seek(c.pointerTime(px))
}

// Seek moves the player's playhead. It never touches regions or Store.CurrentTime.
func (c *Controller) Seek(t float64) {
	if c.player == nil {
		return
	}
	c.player.Seek(pixel.ClampTime(t, c.store.Duration()))
}
