// internal/interaction/keys.go
package interaction

import "strings"

// Shortcut is a key press as reported by the browser.
type Shortcut struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Meta  bool   `json:"meta"`
}

// Action is what a shortcut does in the editor.
type Action string

const (
	ActionNone    Action = ""
	ActionUndo    Action = "undo"
	ActionRedo    Action = "redo"
	ActionSplit   Action = "split"
	ActionDelete  Action = "delete"
	ActionZoomIn  Action = "zoom-in"
	ActionZoomOut Action = "zoom-out"
)

// Resolve maps a key press to an editor action:
//
//	Ctrl/Cmd+Z          undo
//	Ctrl/Cmd+Shift+Z    redo
//	Ctrl/Cmd+Y          redo
//	S                   split at playhead
//	Delete, Backspace   delete selected region
//	+ / =, -            zoom in, zoom out
func Resolve(s Shortcut) Action {
	key := strings.ToLower(s.Key)
	mod := s.Ctrl || s.Meta
	switch {
	case mod && key == "z" && s.Shift:
		return ActionRedo
	case mod && key == "z":
		return ActionUndo
	case mod && key == "y":
		return ActionRedo
	case mod:
		return ActionNone
	case key == "s":
		return ActionSplit
	case key == "delete" || key == "backspace":
		return ActionDelete
	case key == "+" || key == "=":
		return ActionZoomIn
	case key == "-":
		return ActionZoomOut
	}
	return ActionNone
}

// HandleKey runs the action bound to a shortcut and reports which one ran.
func (c *Controller) HandleKey(s Shortcut) (Action, error) {
	action := Resolve(s)
	var err error
	switch action {
	case ActionUndo:
		_, err = c.Undo()
	case ActionRedo:
		_, err = c.Redo()
	case ActionSplit:
		_, err = c.SplitAtPlayhead()
	case ActionDelete:
		err = c.DeleteSelected()
	case ActionZoomIn:
		c.ZoomIn()
	case ActionZoomOut:
		c.ZoomOut()
	}
	return action, err
}
