package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lisperz/Test1-frazo-sub001/internal/event"
	"github.com/lisperz/Test1-frazo-sub001/internal/interaction"
	"github.com/lisperz/Test1-frazo-sub001/internal/metrics"
	"github.com/lisperz/Test1-frazo-sub001/internal/service"
	"github.com/lisperz/Test1-frazo-sub001/internal/storage"
	"github.com/lisperz/Test1-frazo-sub001/internal/thumbnail"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/lisperz/Test1-frazo-sub001/internal/validation"
	"github.com/lisperz/Test1-frazo-sub001/internal/workspace"
	"github.com/rs/zerolog"
)

// UserHeader carries the caller's id; the API gateway sets it.
const UserHeader = "X-User-ID"

// maxUploadMemory is how much of a multipart upload is buffered in memory
// before spilling to temp files.
const maxUploadMemory = 32 << 20

type EditorHandler struct {
	Sessions   service.Repository
	Workspaces *workspace.Manager
	Storage    storage.Storage
	Events     event.Publisher
	Metrics    *metrics.Metrics
	Log        zerolog.Logger

	Thumbnails thumbnail.Options
	// Frames opens a frame source for a video URL or path.
	Frames func(src string) thumbnail.FrameSource
}

// Register mounts every editor route on r.
func (h *EditorHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.SaveSession).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/upload", h.UploadAudio).Methods(http.MethodPost)

	s := api.PathPrefix("/sessions/{id}").Subrouter()
	s.HandleFunc("/video", h.LoadVideo).Methods(http.MethodPost)
	s.HandleFunc("/playhead", h.ReportPlayhead).Methods(http.MethodPost)
	s.HandleFunc("/viewport", h.SetViewport).Methods(http.MethodPut)
	s.HandleFunc("/timeline", h.GetTimeline).Methods(http.MethodGet)
	s.HandleFunc("/thumbnails", h.GetThumbnails).Methods(http.MethodGet)
	s.HandleFunc("/regions", h.AddRegion).Methods(http.MethodPost)
	s.HandleFunc("/regions", h.ClearRegions).Methods(http.MethodDelete)
	s.HandleFunc("/regions/validate", h.ValidateTimes).Methods(http.MethodPost)
	s.HandleFunc("/regions/{rid}", h.UpdateRegion).Methods(http.MethodPatch)
	s.HandleFunc("/regions/{rid}", h.DeleteRegion).Methods(http.MethodDelete)
	s.HandleFunc("/select", h.SelectRegion).Methods(http.MethodPost)
	s.HandleFunc("/split", h.Split).Methods(http.MethodPost)
	s.HandleFunc("/undo", h.Undo).Methods(http.MethodPost)
	s.HandleFunc("/redo", h.Redo).Methods(http.MethodPost)
	s.HandleFunc("/keys", h.Key).Methods(http.MethodPost)
	s.HandleFunc("/pointer/down", h.PointerDown).Methods(http.MethodPost)
	s.HandleFunc("/pointer/move", h.PointerMove).Methods(http.MethodPost)
	s.HandleFunc("/pointer/up", h.PointerUp).Methods(http.MethodPost)
	s.HandleFunc("/export", h.Export).Methods(http.MethodPost)
}

func userID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(UserHeader)
	if raw == "" {
		return uuid.Nil, &apiError{Code: CodeUnauthenticated, Message: UserHeader + " header is required", status: http.StatusUnauthorized}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &apiError{Code: CodeUnauthenticated, Message: UserHeader + " must be a UUID", status: http.StatusUnauthorized}
	}
	return id, nil
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, badRequest("session id must be a UUID")
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// workspace returns the caller's live workspace for the session in the URL,
// loading it from persistence on first use.
func (h *EditorHandler) workspace(r *http.Request) (*workspace.Workspace, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	user, err := userID(r)
	if err != nil {
		return nil, err
	}
	if ws, err := h.Workspaces.Get(id); err == nil {
		if ws.Owner != user {
			return nil, service.ErrUnauthorized
		}
		return ws, nil
	}
	session, err := h.Sessions.GetSession(r.Context(), id, user)
	if err != nil {
		return nil, err
	}
	return h.Workspaces.Open(id, user, session.Timeline)
}

func (h *EditorHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		ContentID string `json:"content_id"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.UserID != "" && r.Header.Get(UserHeader) == "" {
		r.Header.Set(UserHeader, req.UserID)
	}
	user, err := userID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validation.ValidateContentID(req.ContentID); err != nil {
		h.writeError(w, r, err)
		return
	}
	content, err := uuid.Parse(req.ContentID)
	if err != nil {
		h.writeError(w, r, badRequest("content_id must be a UUID"))
		return
	}

	session, err := h.Sessions.FindOrCreateSession(r.Context(), user, content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.Workspaces.Open(session.SessionID, user, session.Timeline); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GetSession returns the stored record. If the session is open, its timeline
// is the live one rather than the last saved one.
func (h *EditorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := userID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.Sessions.GetSession(r.Context(), id, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ws, err := h.Workspaces.Get(id); err == nil {
		session.Timeline = ws.Snapshot()
	}
	writeJSON(w, http.StatusOK, session)
}

// SaveSession persists the live timeline. A body with a timeline replaces the
// live state first, the way a client restores a draft.
func (h *EditorHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body struct {
		Timeline *timeline.Document `json:"timeline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, badRequest("invalid JSON: "+err.Error()))
		return
	}
	if body.Timeline != nil {
		_, err := ws.Do(func(c *interaction.Controller) error {
			return c.Store().Restore(*body.Timeline)
		})
		h.Metrics.Edit("restore", err)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	version, err := h.Sessions.SaveSession(r.Context(), ws.ID, ws.Owner, ws.Snapshot())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "saved",
		"version": version,
	})
}

func (h *EditorHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := userID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Sessions.DeleteSession(r.Context(), id, user); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.Workspaces.Close(id)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
	})
}

// UploadAudio stores an audio file for lip-sync segments and returns the
// AudioInput fields a segment should reference it by.
func (h *EditorHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	if _, err := userID(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.writeError(w, r, badRequest("invalid multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, badRequest("missing form field \"file\""))
		return
	}
	defer file.Close()

	contentType, err := validation.ValidateUpload(header)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	key, refID := storage.AssetKey("audio", header.Filename)
	url, err := h.Storage.Put(r.Context(), key, file, contentType)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("store upload: %w", err))
		return
	}
	h.Log.Info().Str("ref_id", refID).Int64("size", header.Size).Str("content_type", contentType).Msg("audio uploaded")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"refId":       refID,
		"fileName":    header.Filename,
		"fileSize":    header.Size,
		"contentType": contentType,
		"url":         url,
	})
}

func (h *EditorHandler) observeThumbnails(start time.Time) {
	h.Metrics.ThumbnailDuration.Observe(time.Since(start).Seconds())
}
