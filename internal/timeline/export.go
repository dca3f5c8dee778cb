// internal/timeline/export.go
package timeline

// Submission is what the processing backend receives for one video.
type Submission struct {
	VideoDuration float64          `json:"videoDuration"`
	Effects       []EffectPayload  `json:"effects"`
	Segments      []SegmentPayload `json:"segments"`
	// Assets lists each distinct audio file once, keyed by refId.
	Assets []AudioAsset `json:"audioAssets"`
}

type EffectPayload struct {
	Type      Kind    `json:"type"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Region    Rect    `json:"region"`
}

type SegmentPayload struct {
	StartTime  float64  `json:"startTime"`
	EndTime    float64  `json:"endTime"`
	AudioInput AudioRef `json:"audioInput"`
	Label      string   `json:"label,omitempty"`
}

// AudioRef points a segment at an asset and its crop window.
type AudioRef struct {
	RefID     string   `json:"refId"`
	StartTime *float64 `json:"startTime,omitempty"`
	EndTime   *float64 `json:"endTime,omitempty"`
}

type AudioAsset struct {
	RefID    string `json:"refId"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// Export converts a document into the submission payload.
func Export(doc Document) Submission {
	sub := Submission{
		VideoDuration: doc.VideoDuration,
		Effects:       []EffectPayload{},
		Segments:      []SegmentPayload{},
		Assets:        []AudioAsset{},
	}
	seen := make(map[string]bool)
	for _, r := range doc.Regions {
		if r.Kind.IsEffect() {
			p := EffectPayload{Type: r.Kind, StartTime: r.StartTime, EndTime: r.EndTime}
			if r.Rect != nil {
				p.Region = *r.Rect
			}
			sub.Effects = append(sub.Effects, p)
			continue
		}
		if r.Audio == nil {
			continue
		}
		sub.Segments = append(sub.Segments, SegmentPayload{
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			AudioInput: AudioRef{
				RefID:     r.Audio.RefID,
				StartTime: copyFloat(r.Audio.StartTime),
				EndTime:   copyFloat(r.Audio.EndTime),
			},
			Label: r.Label,
		})
		if !seen[r.Audio.RefID] {
			seen[r.Audio.RefID] = true
			sub.Assets = append(sub.Assets, AudioAsset{
				RefID:    r.Audio.RefID,
				FileName: r.Audio.FileName,
				FileSize: r.Audio.FileSize,
			})
		}
	}
	return sub
}
