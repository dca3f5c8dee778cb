// internal/timeline/overlap.go
package timeline

// Overlaps returns the ids of segments whose [start,end) intervals intersect
// another segment. It only reports; nothing is blocked here.
func Overlaps(regions []Region) map[string]bool {
	out := make(map[string]bool)
	for i := 0; i < len(regions); i++ {
		a := regions[i]
		if a.Kind != KindSegment {
			continue
		}
		for j := i + 1; j < len(regions); j++ {
			b := regions[j]
			if b.Kind != KindSegment {
				continue
			}
			if a.StartTime < b.EndTime && b.StartTime < a.EndTime {
				out[a.ID] = true
				out[b.ID] = true
			}
		}
	}
	return out
}
