// internal/timeline/document.go
package timeline

// Document is the persisted form of a session's timeline.
type Document struct {
	VideoDuration float64  `json:"videoDuration"`
	Regions       []Region `json:"regions"`
}

// Clone returns a deep copy. A nil region list becomes an empty one.
func (d Document) Clone() Document {
	return Document{VideoDuration: d.VideoDuration, Regions: cloneRegions(d.Regions)}
}
