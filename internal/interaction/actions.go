// internal/interaction/actions.go
package interaction

import (
	"errors"
	"fmt"

	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

// Feedback is the message shown after a deliberate action did not go through.
type Feedback struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// FeedbackFor turns an edit error into a message for the user. It returns nil for nil.
func FeedbackFor(err error) *Feedback {
	if err == nil {
		return nil
	}
	level := "warning"
	var msg string
	switch {
	case errors.Is(err, timeline.ErrNoRegionAtTime):
		msg = "There is no region under the playhead to split."
	case errors.Is(err, timeline.ErrBelowMinimumDuration):
		msg = "That edit would leave a region too short: " + detail(err, timeline.ErrBelowMinimumDuration)
	case errors.Is(err, timeline.ErrOverlap):
		msg = "Segments cannot overlap: " + detail(err, timeline.ErrOverlap)
	case errors.Is(err, timeline.ErrInvalidRange):
		msg = "That time range is not valid: " + detail(err, timeline.ErrInvalidRange)
	case errors.Is(err, timeline.ErrUnknownID):
		msg = "That region no longer exists."
	case errors.Is(err, timeline.ErrNoVideo):
		msg = "Load a video before editing the timeline."
	case errors.Is(err, ErrNothingSelected):
		msg = "Select a region first."
	case errors.Is(err, ErrGestureInProgress):
		msg = "Finish the current drag first."
	default:
		level = "error"
		msg = err.Error()
	}
	return &Feedback{Level: level, Message: msg}
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	s := err.Error()
	prefix := sentinel.Error() + ": "
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// CanSplit reports whether a split at the playhead would succeed. The UI uses it
// to disable the split button ahead of time.
func (c *Controller) CanSplit() bool {
	return c.drag == nil && c.store.CheckSplit(c.store.CurrentTime()) == nil
}

// SplitAtPlayhead splits the region under the player's current time.
func (c *Controller) SplitAtPlayhead() ([2]timeline.Region, error) {
	if c.drag != nil {
		return [2]timeline.Region{}, ErrGestureInProgress
	}
	t := c.store.CurrentTime()
	halves, err := c.store.SplitAt(t)
	if err != nil {
		c.log.Info().Err(err).Float64("time", t).Msg("split rejected")
		return halves, fmt.Errorf("split at %.2fs: %w", t, err)
	}
	return halves, nil
}

// DeleteSelected removes the region being edited.
func (c *Controller) DeleteSelected() error {
	if c.drag != nil {
		return ErrGestureInProgress
	}
	id := c.store.Editing()
	if id == "" {
		return ErrNothingSelected
	}
	return c.store.Delete(id)
}

// Undo steps back one history entry; it is refused mid-drag.
func (c *Controller) Undo() (bool, error) {
	if c.drag != nil {
		return false, ErrGestureInProgress
	}
	return c.store.Undo(), nil
}

// Redo steps forward one history entry; it is refused mid-drag.
func (c *Controller) Redo() (bool, error) {
	if c.drag != nil {
		return false, ErrGestureInProgress
	}
	return c.store.Redo(), nil
}
