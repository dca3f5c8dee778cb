package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoragePut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8083/")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	url, err := s.Put(context.Background(), "exports/abc/1.json", strings.NewReader(`{"ok":true}`), "application/json")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "http://localhost:8083/uploads/exports/abc/1.json" {
		t.Errorf("Put() url = %q", url)
	}
	b, err := os.ReadFile(filepath.Join(dir, "exports", "abc", "1.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(b) != `{"ok":true}` {
		t.Errorf("stored body = %q", b)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "")
	for _, key := range []string{"../etc/passwd", "/abs", "a/../../b", ""} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), "text/plain"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) error = %v, want %v", key, err, ErrInvalidKey)
		}
	}
}

func TestAssetKey(t *testing.T) {
	key, ref := AssetKey("audio", "../../Voice Over.MP3")
	if key != "audio/"+ref+".mp3" {
		t.Errorf("AssetKey() = %q, %q", key, ref)
	}
}

func TestS3ObjectURL(t *testing.T) {
	s := &S3Storage{Bucket: "edits", Region: "eu-west-1"}
	if got := s.objectURL("exports/a.json"); got != "https://edits.s3.eu-west-1.amazonaws.com/exports/a.json" {
		t.Errorf("objectURL() = %q", got)
	}
	s.Endpoint = "http://minio:9000/"
	if got := s.objectURL("exports/a.json"); got != "http://minio:9000/edits/exports/a.json" {
		t.Errorf("objectURL() = %q", got)
	}
}
