// Package workspace keeps the live editing state of every open session in memory.
package workspace

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lisperz/Test1-frazo-sub001/internal/interaction"
	"github.com/lisperz/Test1-frazo-sub001/internal/pixel"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var ErrNotOpen = errors.New("workspace is not open")

// seekRecorder stands in for the browser's video element. The last requested
// position is handed back to the client, which seeks and reports progress.
type seekRecorder struct {
	pending *float64
}

func (p *seekRecorder) Seek(t float64) { p.pending = &t }

func (p *seekRecorder) take() *float64 {
	t := p.pending
	p.pending = nil
	return t
}

// Workspace is one open editor: a region store and the controller driving it.
// Every access goes through Do, which serialises callers.
type Workspace struct {
	ID    uuid.UUID
	Owner uuid.UUID

	mu       sync.Mutex
	videoSrc string
	store    *timeline.Store
	ctrl     *interaction.Controller
	player   *seekRecorder
	lastUsed atomic.Int64
}

// Do runs fn with exclusive access to the workspace. It returns the seek the
// controller requested while fn ran, if any.
func (w *Workspace) Do(fn func(c *interaction.Controller) error) (*float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch(time.Now())
	err := fn(w.ctrl)
	return w.player.take(), err
}

// Snapshot returns the current document without holding the lock for long.
func (w *Workspace) Snapshot() timeline.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Document()
}

// SetVideoSource remembers where the session's video can be read from.
func (w *Workspace) SetVideoSource(src string) {
	w.mu.Lock()
	w.videoSrc = src
	w.mu.Unlock()
}

// VideoSource is the URL or path given with the last loaded video, if any.
func (w *Workspace) VideoSource() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.videoSrc
}

func (w *Workspace) touch(now time.Time) { w.lastUsed.Store(now.UnixNano()) }

func (w *Workspace) idleSince() time.Time { return time.Unix(0, w.lastUsed.Load()) }

// Settings configure the stores and controllers the manager creates.
type Settings struct {
	Timeline       timeline.Options
	Zoom           pixel.ZoomConfig
	ContainerWidth float64
	IdleTTL        time.Duration
}

// Manager owns all open workspaces.
type Manager struct {
	settings Settings
	base     zerolog.Logger
	log      zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	items map[uuid.UUID]*Workspace

	// OnChange, if set, is told the number of open workspaces after every
	// open, close and eviction.
	OnChange func(open int)

	cron *cron.Cron
}

func NewManager(settings Settings, log zerolog.Logger) *Manager {
	return &Manager{
		settings: settings,
		base:     log,
		log:      log.With().Str("component", "workspace").Logger(),
		now:      time.Now,
		items:    make(map[uuid.UUID]*Workspace),
	}
}

// Open returns the workspace for id, creating it from doc if it is not open yet.
// An empty doc (no video duration) opens a workspace waiting for LoadVideo.
func (m *Manager) Open(id, owner uuid.UUID, doc timeline.Document) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.items[id]; ok {
		w.touch(m.now())
		return w, nil
	}

	store := timeline.New(m.settings.Timeline, m.base)
	if doc.VideoDuration > 0 {
		if err := store.Restore(doc); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}
	}
	player := &seekRecorder{}
	w := &Workspace{
		ID:     id,
		Owner:  owner,
		store:  store,
		player: player,
		ctrl:   interaction.New(store, player, m.settings.Zoom, m.settings.ContainerWidth, m.base),
	}
	w.touch(m.now())
	m.items[id] = w
	m.changed()
	m.log.Debug().Str("session_id", id.String()).Int("regions", len(doc.Regions)).Msg("workspace opened")
	return w, nil
}

// Get returns an open workspace.
func (m *Manager) Get(id uuid.UUID) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, id)
	}
	return w, nil
}

// Close drops a workspace. Unsaved edits are lost.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	m.changed()
}

func (m *Manager) changed() {
	if m.OnChange != nil {
		m.OnChange(len(m.items))
	}
}

// Len is the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Evict closes every workspace idle for longer than the configured TTL and
// returns how many were closed.
func (m *Manager) Evict() int {
	if m.settings.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.settings.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, w := range m.items {
		if w.idleSince().Before(cutoff) {
			delete(m.items, id)
			n++
		}
	}
	if n > 0 {
		m.changed()
		m.log.Info().Int("evicted", n).Int("open", len(m.items)).Msg("idle workspaces evicted")
	}
	return n
}

// StartEviction runs Evict on a cron schedule such as "@every 1m".
func (m *Manager) StartEviction(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.Evict() }); err != nil {
		return fmt.Errorf("schedule eviction %q: %w", schedule, err)
	}
	c.Start()
	m.cron = c
	m.log.Info().Str("schedule", schedule).Dur("ttl", m.settings.IdleTTL).Msg("workspace eviction started")
	return nil
}

// Stop halts the eviction job and waits for a running pass to finish.
func (m *Manager) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}
