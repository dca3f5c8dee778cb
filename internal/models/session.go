package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

const (
	StatusActive   = "active"
	StatusExported = "exported"
)

// EditorSession is the persisted form of one user's edit of one video.
type EditorSession struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	ContentID uuid.UUID `json:"content_id"`

	Timeline timeline.Document `json:"timeline"`

	Version int    `json:"version"`
	Status  string `json:"status"`

	// Set once the timeline has been submitted for processing.
	ExportURL     string `json:"export_url,omitempty"`
	ExportVersion int    `json:"export_version,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
