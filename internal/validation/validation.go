package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

const (
	MaxFileSize     = 500 * 1024 * 1024 // 500MB
	MaxFilenameSize = 255
)

var (
	ErrFileTooLarge    = errors.New("file too large - maximum 500MB allowed")
	ErrInvalidFileType = errors.New("invalid file type - only mp3, wav, m4a, ogg, mp4, webm allowed")
	ErrFilenameTooLong = errors.New("filename too long - maximum 255 characters")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidContent  = errors.New("invalid content_id")
)

// AllowedAudioTypes are the formats a lip-sync segment can reference. Video
// containers are accepted because their audio track can drive a segment.
var AllowedAudioTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/wav":   true,
	"audio/wave":  true,
	"audio/x-wav": true,
	"audio/ogg":   true,
	"video/mp4":   true,
	"video/webm":  true,
}

// ValidateUpload checks a multipart audio upload and returns its content type.
func ValidateUpload(fileHeader *multipart.FileHeader) (string, error) {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = guessContentType(fileHeader.Filename)
	}
	if err := checkFile(fileHeader.Filename, fileHeader.Size, contentType); err != nil {
		return "", err
	}
	return contentType, nil
}

// ValidateAudioInput checks the file metadata a segment carries. Size is only
// checked when the client reported it.
func ValidateAudioInput(a timeline.AudioInput) error {
	if a.FileName == "" {
		return nil
	}
	if len(a.FileName) > MaxFilenameSize {
		return ErrFilenameTooLong
	}
	if a.FileSize > MaxFileSize {
		return ErrFileTooLarge
	}
	if !AllowedAudioTypes[guessContentType(a.FileName)] {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, a.FileName)
	}
	return nil
}

func checkFile(name string, size int64, contentType string) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if len(name) > MaxFilenameSize {
		return ErrFilenameTooLong
	}
	if !AllowedAudioTypes[contentType] {
		return ErrInvalidFileType
	}
	return nil
}

func guessContentType(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx == -1 {
		return "application/octet-stream"
	}

	typeMap := map[string]string{
		"mp3":  "audio/mpeg",
		"m4a":  "audio/mp4",
		"wav":  "audio/wav",
		"ogg":  "audio/ogg",
		"mp4":  "video/mp4",
		"webm": "video/webm",
	}
	if ct, ok := typeMap[strings.ToLower(filename[idx+1:])]; ok {
		return ct
	}
	return "application/octet-stream"
}

func ValidateContentID(contentID string) error {
	if contentID == "" {
		return fmt.Errorf("%w: content_id is required", ErrInvalidContent)
	}
	if len(contentID) < 10 || len(contentID) > 100 {
		return fmt.Errorf("%w: content_id must be between 10 and 100 characters", ErrInvalidContent)
	}
	return nil
}
