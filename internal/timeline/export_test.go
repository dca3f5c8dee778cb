package timeline

import (
	"encoding/json"
	"testing"
)

func TestExportDeduplicatesAssets(t *testing.T) {
	s := newTestStore(t, 20)
	mustAdd(t, s, segment(0, 8, croppedAudio(0, 10)))
	mustAdd(t, s, segment(10, 14, &AudioInput{RefID: "voice-2", FileName: "other.wav", FileSize: 2048}))
	mustAdd(t, s, effect(KindErasure, 1, 3))
	if _, err := s.SplitAt(4); err != nil {
		t.Fatal(err)
	}

	sub := Export(s.Document())

	if len(sub.Segments) != 3 {
		t.Fatalf("len(Segments) = %d, want 3", len(sub.Segments))
	}
	if len(sub.Effects) != 1 || sub.Effects[0].Type != KindErasure {
		t.Fatalf("Effects = %+v", sub.Effects)
	}
	if len(sub.Assets) != 2 {
		t.Fatalf("Assets = %+v, want voice-1 and voice-2 once each", sub.Assets)
	}
	if sub.Assets[0].RefID != "voice-1" || sub.Assets[1].RefID != "voice-2" {
		t.Errorf("Assets order = %s, %s", sub.Assets[0].RefID, sub.Assets[1].RefID)
	}
	if sub.Segments[0].Label != "Segment 1" || sub.Segments[2].Label != "Segment 3" {
		t.Errorf("labels = %q .. %q", sub.Segments[0].Label, sub.Segments[2].Label)
	}
}

func TestExportOmitsAbsentCrop(t *testing.T) {
	s := newTestStore(t, 10)
	mustAdd(t, s, segment(0, 2, nil))

	b, err := json.Marshal(Export(s.Document()))
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Segments []struct {
			AudioInput map[string]any `json:"audioInput"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	audio := raw.Segments[0].AudioInput
	if _, ok := audio["startTime"]; ok {
		t.Errorf("audioInput.startTime present without a crop: %v", audio)
	}
	if audio["refId"] != "voice-1" {
		t.Errorf("audioInput.refId = %v", audio["refId"])
	}
}
