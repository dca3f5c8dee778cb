// internal/timeline/history.go
package timeline

// history is a bounded linear undo log of full region snapshots.
// entries[index] is always the current state.
type history struct {
	entries [][]Region
	index   int
	limit   int
}

func newHistory(limit int, initial []Region) *history {
	return &history{
		entries: [][]Region{cloneRegions(initial)},
		limit:   limit,
	}
}

// push drops any redo tail, appends the snapshot and discards the oldest
// entries past the limit.
func (h *history) push(snapshot []Region) {
	h.entries = append(h.entries[:h.index+1], cloneRegions(snapshot))
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	h.index = len(h.entries) - 1
}

// replace overwrites the current snapshot in place.
func (h *history) replace(snapshot []Region) {
	h.entries = h.entries[:h.index+1]
	h.entries[h.index] = cloneRegions(snapshot)
}

func (h *history) canUndo() bool { return h.index > 0 }

func (h *history) canRedo() bool { return h.index < len(h.entries)-1 }

func (h *history) undo() ([]Region, bool) {
	if !h.canUndo() {
		return nil, false
	}
	h.index--
	return cloneRegions(h.entries[h.index]), true
}

func (h *history) redo() ([]Region, bool) {
	if !h.canRedo() {
		return nil, false
	}
	h.index++
	return cloneRegions(h.entries[h.index]), true
}

func (h *history) len() int { return len(h.entries) }
