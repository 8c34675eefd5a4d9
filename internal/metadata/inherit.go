package metadata

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"papermill/internal/document"
)

// InheritMetadata builds complete metadata for a document entering
// targetStage from a parent document. Tags carry forward, the
// stage-appropriate source reference is set, and a fresh ID is assigned when
// the child lacks one (or would collide with the parent's). The parent's own
// ID is never reused: lineage is expressed only through source references.
func InheritMetadata(child document.Metadata, parent document.Metadata, parentPath string, targetStage document.Stage) (document.Metadata, error) {
	if !document.CanTransition(parent.Stage, targetStage) {
		return document.Metadata{}, fmt.Errorf("invalid stage transition %s -> %s", parent.Stage, targetStage)
	}

	out := child.Clone()
	out.Stage = targetStage
	if out.ID == "" || out.ID == parent.ID {
		out.ID = uuid.NewString()
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	if out.Version.IsZero() {
		out.Version = document.InitialVersion
	}
	if out.Author == "" {
		out.Author = parent.Author
	}
	out.Tags = mergeTags(parent.Tags, out.Tags)

	switch targetStage {
	case document.StageInsights:
		out.Source = &document.Source{Type: "document", Path: parentPath, Hash: parent.Hash}
	case document.StageContent:
		out.Source = &document.Source{Insights: parent.ID}
	case document.StagePublished:
		out.Source = &document.Source{Content: parent.ID}
	case document.StageArchived:
		// Archival keeps whatever source the child already carries.
	}

	return out, nil
}

func mergeTags(parent, child []string) []string {
	if len(parent) == 0 {
		return child
	}
	seen := make(map[string]struct{}, len(parent)+len(child))
	merged := make([]string, 0, len(parent)+len(child))
	for _, tag := range append(append([]string{}, parent...), child...) {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}
