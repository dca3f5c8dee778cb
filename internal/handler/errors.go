package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lisperz/Test1-frazo-sub001/internal/interaction"
	"github.com/lisperz/Test1-frazo-sub001/internal/service"
	"github.com/lisperz/Test1-frazo-sub001/internal/storage"
	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
	"github.com/lisperz/Test1-frazo-sub001/internal/validation"
	"github.com/lisperz/Test1-frazo-sub001/internal/workspace"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

const (
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnknownID       ErrorCode = "UNKNOWN_ID"
	CodeInvalidRange    ErrorCode = "INVALID_RANGE"
	CodeBelowMinimum    ErrorCode = "BELOW_MINIMUM_DURATION"
	CodeNoRegionAtTime  ErrorCode = "NO_REGION_AT_TIME"
	CodeOverlap         ErrorCode = "OVERLAP"
	CodeInvalidRegion   ErrorCode = "INVALID_REGION"
	CodeNoVideo         ErrorCode = "NO_VIDEO"
	CodeGesture         ErrorCode = "GESTURE_CONFLICT"
	CodeNothingSelected ErrorCode = "NOTHING_SELECTED"
	CodeValidation      ErrorCode = "VALIDATION"
	CodeInternal        ErrorCode = "INTERNAL"
)

// apiError is the JSON body of every non-2xx response.
type apiError struct {
	Code     ErrorCode             `json:"code"`
	Message  string                `json:"message"`
	Feedback *interaction.Feedback `json:"feedback,omitempty"`
	status   int
}

func (e *apiError) Error() string { return string(e.Code) + ": " + e.Message }

func badRequest(msg string) *apiError {
	return &apiError{Code: CodeBadRequest, Message: msg, status: http.StatusBadRequest}
}

// classify maps domain errors to a code and status.
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	code, status := CodeInternal, http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, workspace.ErrNotOpen):
		code, status = CodeNotFound, http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		code, status = CodeForbidden, http.StatusForbidden
	case errors.Is(err, timeline.ErrUnknownID):
		code, status = CodeUnknownID, http.StatusNotFound
	case errors.Is(err, timeline.ErrOverlap):
		code, status = CodeOverlap, http.StatusConflict
	case errors.Is(err, timeline.ErrInvalidRange):
		code, status = CodeInvalidRange, http.StatusUnprocessableEntity
	case errors.Is(err, timeline.ErrBelowMinimumDuration):
		code, status = CodeBelowMinimum, http.StatusUnprocessableEntity
	case errors.Is(err, timeline.ErrNoRegionAtTime):
		code, status = CodeNoRegionAtTime, http.StatusUnprocessableEntity
	case errors.Is(err, timeline.ErrInvalidRegion):
		code, status = CodeInvalidRegion, http.StatusUnprocessableEntity
	case errors.Is(err, timeline.ErrNoVideo):
		code, status = CodeNoVideo, http.StatusUnprocessableEntity
	case errors.Is(err, interaction.ErrGestureInProgress), errors.Is(err, interaction.ErrNoGesture):
		code, status = CodeGesture, http.StatusConflict
	case errors.Is(err, interaction.ErrNothingSelected):
		code, status = CodeNothingSelected, http.StatusUnprocessableEntity
	case errors.Is(err, validation.ErrFileTooLarge):
		code, status = CodeValidation, http.StatusRequestEntityTooLarge
	case errors.Is(err, validation.ErrInvalidFileType), errors.Is(err, validation.ErrEmptyFile),
		errors.Is(err, validation.ErrFilenameTooLong), errors.Is(err, validation.ErrInvalidContent),
		errors.Is(err, validation.ErrInvalidSubmission), errors.Is(err, storage.ErrInvalidKey):
		code, status = CodeValidation, http.StatusUnprocessableEntity
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return &apiError{Code: code, Message: msg, status: status}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *EditorHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	switch {
	case ae.status >= http.StatusInternalServerError:
		h.Log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	case ae.status == http.StatusConflict, ae.status == http.StatusUnprocessableEntity, ae.Code == CodeUnknownID:
		ae.Feedback = interaction.FeedbackFor(err)
	}
	writeJSON(w, ae.status, ae)
}
