package validation

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/lisperz/Test1-frazo-sub001/internal/timeline"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{Filename: name, Header: h, Size: size}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		header   *multipart.FileHeader
		wantType string
		wantErr  error
	}{
		{"mp3 by extension", header("voice.mp3", "", 1024), "audio/mpeg", nil},
		{"explicit wav", header("take", "audio/wav", 1024), "audio/wav", nil},
		{"octet stream falls back", header("clip.m4a", "application/octet-stream", 10), "audio/mp4", nil},
		{"empty", header("voice.mp3", "", 0), "", ErrEmptyFile},
		{"too large", header("voice.mp3", "", MaxFileSize+1), "", ErrFileTooLarge},
		{"long name", header(strings.Repeat("a", 256)+".mp3", "", 10), "", ErrFilenameTooLong},
		{"image", header("face.png", "image/png", 10), "", ErrInvalidFileType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUpload(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateUpload() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.wantType {
				t.Errorf("ValidateUpload() type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestValidateAudioInput(t *testing.T) {
	if err := ValidateAudioInput(timeline.AudioInput{RefID: "a", FileName: "voice.wav", FileSize: 100}); err != nil {
		t.Errorf("ValidateAudioInput(wav) error = %v", err)
	}
	if err := ValidateAudioInput(timeline.AudioInput{RefID: "a"}); err != nil {
		t.Errorf("ValidateAudioInput(no metadata) error = %v", err)
	}
	if err := ValidateAudioInput(timeline.AudioInput{RefID: "a", FileName: "notes.txt"}); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("ValidateAudioInput(txt) error = %v, want %v", err, ErrInvalidFileType)
	}
}

func TestValidateContentID(t *testing.T) {
	if err := ValidateContentID("3f1c2a9e-5d1b-4a77-9a3e-0b8d1f2c4e6a"); err != nil {
		t.Errorf("ValidateContentID(uuid) error = %v", err)
	}
	for _, id := range []string{"", "short"} {
		if err := ValidateContentID(id); !errors.Is(err, ErrInvalidContent) {
			t.Errorf("ValidateContentID(%q) error = %v, want %v", id, err, ErrInvalidContent)
		}
	}
}

func TestValidateSubmission(t *testing.T) {
	doc := timeline.Document{
		VideoDuration: 10,
		Regions: []timeline.Region{
			{Kind: timeline.KindErasure, StartTime: 0, EndTime: 2, Rect: &timeline.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}},
			{Kind: timeline.KindSegment, StartTime: 3, EndTime: 5, Label: "Segment 1",
				Audio: &timeline.AudioInput{RefID: "voice-1", FileName: "voice.mp3", StartTime: timeline.Float(0), EndTime: timeline.Float(2)}},
		},
	}
	if err := ValidateSubmission(timeline.Export(doc)); err != nil {
		t.Fatalf("ValidateSubmission() error = %v", err)
	}

	bad := timeline.Export(doc)
	bad.Effects[0].Region.Width = 1.5
	if err := ValidateSubmission(bad); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("ValidateSubmission(wide rect) error = %v, want %v", err, ErrInvalidSubmission)
	}

	bad = timeline.Export(doc)
	bad.VideoDuration = 0
	if err := ValidateSubmission(bad); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("ValidateSubmission(no duration) error = %v, want %v", err, ErrInvalidSubmission)
	}
}
