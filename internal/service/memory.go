package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lisperz/Test1-frazo-sub001/internal/models"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

// MemoryRepository keeps sessions in a map. It backs local runs without a
// database and the handler tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.EditorSession
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[uuid.UUID]*models.EditorSession),
		now:      time.Now,
	}
}

func (m *MemoryRepository) FindOrCreateSession(_ context.Context, userID, contentID uuid.UUID) (*models.EditorSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newest *models.EditorSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.ContentID == contentID && (newest == nil || s.CreatedAt.After(newest.CreatedAt)) {
			newest = s
		}
	}
	if newest != nil {
		return copySession(newest), nil
	}

	now := m.now()
	s := &models.EditorSession{
		SessionID: uuid.New(),
		UserID:    userID,
		ContentID: contentID,
		Timeline:  timeline.Document{Regions: []timeline.Region{}},
		Version:   1,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.SessionID] = s
	return copySession(s), nil
}

func (m *MemoryRepository) GetSession(_ context.Context, id, userID uuid.UUID) (*models.EditorSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return copySession(s), nil
}

func (m *MemoryRepository) SaveSession(_ context.Context, id, userID uuid.UUID, doc timeline.Document) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.owned(id, userID)
	if err != nil {
		return 0, err
	}
	s.Timeline = doc.Clone()
	s.Version++
	s.Status = models.StatusActive
	s.UpdatedAt = m.now()
	return s.Version, nil
}

func (m *MemoryRepository) MarkExported(_ context.Context, id uuid.UUID, version int, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Status = models.StatusExported
	s.ExportURL = url
	s.ExportVersion = version
	s.UpdatedAt = m.now()
	return nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, userID); err != nil {
		return err
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryRepository) owned(id, userID uuid.UUID) (*models.EditorSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.UserID != userID {
		return nil, ErrUnauthorized
	}
	return s, nil
}

func copySession(s *models.EditorSession) *models.EditorSession {
	c := *s
	c.Timeline = s.Timeline.Clone()
	return &c
}
