package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lisperz/Test1-frazo-sub001/internal/event"
	"github.com/lisperz/Test1-frazo-sub001/internal/interaction"
	"github.com/lisperz/Test1-frazo-sub001/internal/thumbnail"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/lisperz/Test1-frazo-sub001/internal/validation"
	"github.com/lisperz/Test1-frazo-sub001/internal/workspace"
	"github.com/oklog/ulid/v2"
)

// edit runs fn against the session's workspace and answers with the redrawn
// timeline. fn may fill in the parts of the view specific to the call.
func (h *EditorHandler) edit(w http.ResponseWriter, r *http.Request, op string, status int,
	fn func(c *interaction.Controller, v *timelineView) error) {
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, ws, op, status, fn)
}

func (h *EditorHandler) apply(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, op string, status int,
	fn func(c *interaction.Controller, v *timelineView) error) {
	var view timelineView
	seek, err := ws.Do(func(c *interaction.Controller) error {
		var extra timelineView
		err := fn(c, &extra)
		view = render(c)
		view.Action, view.Changed = extra.Action, extra.Changed
		return err
	})
	if op != "" {
		h.Metrics.Edit(op, err)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view.SeekTo = seek
	writeJSON(w, status, view)
}

func (h *EditorHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "", http.StatusOK, func(*interaction.Controller, *timelineView) error { return nil })
}

// LoadVideo starts the timeline over for a new video. Without an explicit
// duration the video at url is probed.
func (h *EditorHandler) LoadVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration float64 `json:"duration"`
		URL      string  `json:"url"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Duration <= 0 && req.URL != "" && h.Frames != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		d, err := h.Frames(req.URL).Duration(ctx)
		cancel()
		if err != nil {
			h.writeError(w, r, badRequest("could not read video duration: "+err.Error()))
			return
		}
		req.Duration = d
	}
	if req.Duration > 0 {
		ws.SetVideoSource(req.URL)
	}
	h.apply(w, r, ws, "load_video", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		return c.Store().LoadVideo(req.Duration)
	})
}

// ReportPlayhead is the player's progress callback, the only writer of the
// current time.
func (h *EditorHandler) ReportPlayhead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentTime float64 `json:"currentTime"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		c.Store().SetCurrentTime(req.CurrentTime)
		return nil
	})
}

func (h *EditorHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Zoom           float64 `json:"zoom"`
		ContainerWidth float64 `json:"containerWidth"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		zoom := req.Zoom
		if zoom == 0 {
			zoom = c.Zoom()
		}
		c.SetViewport(req.ContainerWidth, zoom)
		return nil
	})
}

func (h *EditorHandler) AddRegion(w http.ResponseWriter, r *http.Request) {
	var region timeline.Region
	if err := decode(r, &region); err != nil {
		h.writeError(w, r, err)
		return
	}
	if region.Audio != nil {
		if err := validation.ValidateAudioInput(*region.Audio); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.edit(w, r, "add", http.StatusCreated, func(c *interaction.Controller, v *timelineView) error {
		added, err := c.Store().Add(region)
		if err != nil {
			return err
		}
		v.Changed = []timeline.Region{added}
		return nil
	})
}

type patchRequest struct {
	StartTime *float64             `json:"startTime"`
	EndTime   *float64             `json:"endTime"`
	Rect      *timeline.Rect       `json:"region"`
	Audio     *timeline.AudioInput `json:"audioInput"`
	Label     *string              `json:"label"`
}

func (h *EditorHandler) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Audio != nil {
		if err := validation.ValidateAudioInput(*req.Audio); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	rid := mux.Vars(r)["rid"]
	h.edit(w, r, "update", http.StatusOK, func(c *interaction.Controller, v *timelineView) error {
		updated, err := c.Store().Update(rid, timeline.Patch{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Rect:      req.Rect,
			Audio:     req.Audio,
			Label:     req.Label,
		})
		if err != nil {
			return err
		}
		v.Changed = []timeline.Region{updated}
		return nil
	})
}

func (h *EditorHandler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	rid := mux.Vars(r)["rid"]
	h.edit(w, r, "delete", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		return c.Store().Delete(rid)
	})
}

// ClearRegions removes every region as one undoable step.
func (h *EditorHandler) ClearRegions(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "clear", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		c.Store().Clear()
		return nil
	})
}

// ValidateTimes checks a placement without changing anything, so a client can
// preview whether a drop or typed time would be accepted.
func (h *EditorHandler) ValidateTimes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind      timeline.Kind `json:"kind"`
		StartTime float64       `json:"startTime"`
		EndTime   float64       `json:"endTime"`
		ExcludeID string        `json:"excludeId"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, err = ws.Do(func(c *interaction.Controller) error {
		return c.Store().ValidateTimes(req.StartTime, req.EndTime, req.Kind, req.ExcludeID)
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *EditorHandler) SelectRegion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RegionID string `json:"regionId"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		return c.Store().Select(req.RegionID)
	})
}

func (h *EditorHandler) Split(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "split", http.StatusOK, func(c *interaction.Controller, v *timelineView) error {
		halves, err := c.SplitAtPlayhead()
		if err != nil {
			return err
		}
		v.Changed = halves[:]
		return nil
	})
}

func (h *EditorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "undo", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		_, err := c.Undo()
		return err
	})
}

func (h *EditorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "redo", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		_, err := c.Redo()
		return err
	})
}

func (h *EditorHandler) Key(w http.ResponseWriter, r *http.Request) {
	var key interaction.Shortcut
	if err := decode(r, &key); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "key", http.StatusOK, func(c *interaction.Controller, v *timelineView) error {
		action, err := c.HandleKey(key)
		v.Action = action
		return err
	})
}

type pointerRequest struct {
	Target   interaction.Target `json:"target"`
	RegionID string             `json:"regionId"`
	X        float64            `json:"x"`
}

func (h *EditorHandler) PointerDown(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		return c.PointerDown(req.Target, req.RegionID, req.X)
	})
}

func (h *EditorHandler) PointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.edit(w, r, "", http.StatusOK, func(c *interaction.Controller, v *timelineView) error {
		moved, err := c.PointerMove(req.X)
		if err == nil && moved.ID != "" {
			v.Changed = []timeline.Region{moved}
		}
		return err
	})
}

func (h *EditorHandler) PointerUp(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, "drag", http.StatusOK, func(c *interaction.Controller, _ *timelineView) error {
		if !c.Dragging() {
			return interaction.ErrNoGesture
		}
		c.PointerUp()
		return nil
	})
}

// GetThumbnails renders the preview strip for the session's video.
func (h *EditorHandler) GetThumbnails(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	src := ws.VideoSource()
	if src == "" || h.Frames == nil {
		h.writeError(w, r, fmt.Errorf("%w: no video source to read thumbnails from", timeline.ErrNoVideo))
		return
	}
	start := time.Now()
	thumbs, err := thumbnail.Generate(r.Context(), h.Frames(src), h.Thumbnails, h.Log)
	h.observeThumbnails(start)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("thumbnails: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"thumbnails": thumbs})
}

// Export saves the live timeline, writes its submission payload to storage and
// announces it on the event bus.
func (h *EditorHandler) Export(w http.ResponseWriter, r *http.Request) {
	ws, err := h.workspace(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	url, version, sub, err := h.storeSubmission(r.Context(), ws)
	if err != nil {
		h.Metrics.ExportTotal.WithLabelValues("failed").Inc()
		h.writeError(w, r, err)
		return
	}
	h.Metrics.ExportTotal.WithLabelValues("ok").Inc()

	session, err := h.Sessions.GetSession(r.Context(), ws.ID, ws.Owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Sessions.MarkExported(r.Context(), ws.ID, version, url); err != nil {
		h.Log.Warn().Err(err).Str("session_id", ws.ID.String()).Msg("export stored but session not marked")
	}

	ev := event.TimelineExported{
		SessionID:     ws.ID.String(),
		UserID:        ws.Owner.String(),
		ContentID:     session.ContentID.String(),
		Version:       version,
		URL:           url,
		VideoDuration: sub.VideoDuration,
		Effects:       len(sub.Effects),
		Segments:      len(sub.Segments),
	}
	status := "ok"
	if err := h.Events.PublishTimelineExported(r.Context(), ev); err != nil {
		status = "failed"
		h.Log.Error().Err(err).Str("session_id", ev.SessionID).Msg("publish timeline export")
	}
	h.Metrics.EventPublishTotal.WithLabelValues(event.SubjectTimelineExport, status).Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":    version,
		"url":        url,
		"submission": sub,
	})
}

// storeSubmission validates the live timeline, saves it as a new version and
// writes the submission JSON under exports/<session>/<ulid>.json.
func (h *EditorHandler) storeSubmission(ctx context.Context, ws *workspace.Workspace) (string, int, timeline.Submission, error) {
	doc := ws.Snapshot()
	if doc.VideoDuration <= 0 {
		return "", 0, timeline.Submission{}, timeline.ErrNoVideo
	}
	sub := timeline.Export(doc)
	if err := validation.ValidateSubmission(sub); err != nil {
		return "", 0, sub, err
	}
	version, err := h.Sessions.SaveSession(ctx, ws.ID, ws.Owner, doc)
	if err != nil {
		return "", 0, sub, err
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return "", 0, sub, err
	}
	key := fmt.Sprintf("exports/%s/%s.json", ws.ID, ulid.Make())
	url, err := h.Storage.Put(ctx, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return "", 0, sub, fmt.Errorf("store submission: %w", err)
	}
	return url, version, sub, nil
}
