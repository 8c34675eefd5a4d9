package metadata

import "papermill/internal/document"

// ValidateMetadata reports whether metadata satisfies the base contract and
// the required fields of the expected stage. It returns false rather than an
// error so batch scans can record the failure and keep going.
func ValidateMetadata(meta document.Metadata, expectedStage document.Stage) bool {
	return len(MissingFields(meta, expectedStage)) == 0
}

// MissingFields lists which required fields are absent or wrong for the
// expected stage. An empty result means the document is valid.
func MissingFields(meta document.Metadata, expectedStage document.Stage) []string {
	var missing []string
	if !expectedStage.Valid() {
		return []string{"stage"}
	}
	if meta.ID == "" {
		missing = append(missing, "id")
	}
	if meta.Author == "" {
		missing = append(missing, "author")
	}
	if meta.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if meta.Version.IsZero() {
		missing = append(missing, "version")
	}
	if meta.Stage != expectedStage {
		missing = append(missing, "stage")
	}

	switch expectedStage {
	case document.StageInsights:
		if meta.Source == nil || meta.Source.Type == "" || meta.Source.Path == "" {
			missing = append(missing, "source")
		}
		if len(meta.Frameworks) == 0 {
			missing = append(missing, "frameworks")
		}
	case document.StageContent:
		if meta.Source == nil || meta.Source.Insights == "" {
			missing = append(missing, "source.insights")
		}
		if meta.VoiceDNA == nil || meta.VoiceDNA.Profile == "" {
			missing = append(missing, "voice_dna")
		} else if meta.VoiceDNA.Confidence < 0 || meta.VoiceDNA.Confidence > 1 {
			missing = append(missing, "voice_dna.confidence")
		}
		if meta.Mode == "" {
			missing = append(missing, "mode")
		}
	case document.StagePublished:
		if meta.Source == nil || meta.Source.Content == "" {
			missing = append(missing, "source.content")
		}
		if meta.Platform == "" {
			missing = append(missing, "platform")
		}
		if len(meta.Optimizations) == 0 {
			missing = append(missing, "optimizations")
		}
	}

	return missing
}
