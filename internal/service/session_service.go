// internal/service/session_service.go
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lisperz/Test1-frazo-sub001/internal/models"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized: session belongs to another user")
)

const queryTimeout = 5 * time.Second

// Repository is what the handlers need from session persistence.
type Repository interface {
	FindOrCreateSession(ctx context.Context, userID, contentID uuid.UUID) (*models.EditorSession, error)
	GetSession(ctx context.Context, id, userID uuid.UUID) (*models.EditorSession, error)
	SaveSession(ctx context.Context, id, userID uuid.UUID, doc timeline.Document) (int, error)
	MarkExported(ctx context.Context, id uuid.UUID, version int, url string) error
	DeleteSession(ctx context.Context, id, userID uuid.UUID) error
}

var tracer = otel.Tracer("github.com/lisperz/Test1-frazo-sub001/internal/service")

// SessionService stores sessions in postgres. The timeline column is jsonb.
type SessionService struct {
	DB *sql.DB
}

func startSpan(ctx context.Context, name string, id uuid.UUID) (context.Context, trace.Span, context.CancelFunc) {
	ctx, span := tracer.Start(ctx, "SessionService."+name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("session.id", id.String()),
	))
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	return ctx, span, cancel
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const sessionColumns = `session_id, user_id, content_id, timeline, version, status,
		COALESCE(export_url, ''), COALESCE(export_version, 0), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.EditorSession, error) {
	session := &models.EditorSession{}
	var timelineJSON []byte
	err := row.Scan(
		&session.SessionID,
		&session.UserID,
		&session.ContentID,
		&timelineJSON,
		&session.Version,
		&session.Status,
		&session.ExportURL,
		&session.ExportVersion,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(timelineJSON) > 0 {
		if err := json.Unmarshal(timelineJSON, &session.Timeline); err != nil {
			return nil, fmt.Errorf("decode timeline of session %s: %w", session.SessionID, err)
		}
	}
	return session, nil
}

// FindOrCreateSession returns the newest session of this user for this video,
// creating one only when none exists. Reloading the editor therefore resumes
// the same session instead of leaving orphaned rows behind.
func (s *SessionService) FindOrCreateSession(ctx context.Context, userID, contentID uuid.UUID) (session *models.EditorSession, err error) {
	ctx, span, cancel := startSpan(ctx, "FindOrCreateSession", uuid.Nil)
	defer cancel()
	defer func() { endSpan(span, err) }()

	row := s.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM editor_sessions
		WHERE user_id = $1 AND content_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, contentID)
	existing, err := scanSession(row)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	row = s.DB.QueryRowContext(ctx, `
		INSERT INTO editor_sessions (user_id, content_id)
		VALUES ($1, $2)
		RETURNING `+sessionColumns,
		userID, contentID)
	return scanSession(row)
}

// GetSession fetches a session and verifies ownership.
func (s *SessionService) GetSession(ctx context.Context, id, userID uuid.UUID) (session *models.EditorSession, err error) {
	ctx, span, cancel := startSpan(ctx, "GetSession", id)
	defer cancel()
	defer func() { endSpan(span, err) }()

	row := s.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM editor_sessions
		WHERE session_id = $1
	`, id)
	session, err = scanSession(row)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrUnauthorized
	}
	return session, nil
}

// SaveSession persists the timeline and bumps the version counter, returning
// the new version.
func (s *SessionService) SaveSession(ctx context.Context, id, userID uuid.UUID, doc timeline.Document) (version int, err error) {
	ctx, span, cancel := startSpan(ctx, "SaveSession", id)
	defer cancel()
	defer func() { endSpan(span, err) }()

	timelineJSON, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	err = s.DB.QueryRowContext(ctx, `
		UPDATE editor_sessions
		SET timeline   = $1,
		    version    = version + 1,
		    status     = $4,
		    updated_at = NOW()
		WHERE session_id = $2 AND user_id = $3
		RETURNING version
	`, timelineJSON, id, userID, models.StatusActive).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.missingOrForeign(ctx, id)
	}
	span.SetAttributes(attribute.Int("session.version", version))
	return version, err
}

// MarkExported records where the submission for a given version was stored.
func (s *SessionService) MarkExported(ctx context.Context, id uuid.UUID, version int, url string) (err error) {
	ctx, span, cancel := startSpan(ctx, "MarkExported", id)
	defer cancel()
	defer func() { endSpan(span, err) }()

	result, err := s.DB.ExecContext(ctx, `
		UPDATE editor_sessions
		SET status = $1, export_url = $2, export_version = $3, updated_at = NOW()
		WHERE session_id = $4
	`, models.StatusExported, url, version, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession permanently removes a session owned by userID.
func (s *SessionService) DeleteSession(ctx context.Context, id, userID uuid.UUID) (err error) {
	ctx, span, cancel := startSpan(ctx, "DeleteSession", id)
	defer cancel()
	defer func() { endSpan(span, err) }()

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM editor_sessions WHERE session_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return s.missingOrForeign(ctx, id)
	}
	return nil
}

// missingOrForeign tells apart a session that does not exist from one owned by
// someone else, after a user-scoped statement matched no rows.
func (s *SessionService) missingOrForeign(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM editor_sessions WHERE session_id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrUnauthorized
	}
	return ErrSessionNotFound
}
