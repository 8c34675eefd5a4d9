package metadata

import (
	"testing"
	"time"

	"papermill/internal/document"
)

func validContentMetadata() document.Metadata {
	return document.Metadata{
		ID:        "c-1",
		Timestamp: time.Now().UTC(),
		Version:   document.InitialVersion,
		Stage:     document.StageContent,
		Author:    "creator",
		Source:    &document.Source{Insights: "i-1"},
		VoiceDNA:  &document.VoiceDNA{Profile: "voice-a", Confidence: 0.9},
		Mode:      "article",
	}
}

func TestValidateContentRequiresVoiceDNA(t *testing.T) {
	meta := validContentMetadata()
	if !ValidateMetadata(meta, document.StageContent) {
		t.Fatal("complete content metadata should validate")
	}
	meta.VoiceDNA = nil
	if ValidateMetadata(meta, document.StageContent) {
		t.Fatal("content metadata without voice_dna must fail")
	}
}

func TestValidateBaseFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*document.Metadata)
	}{
		{"missing id", func(m *document.Metadata) { m.ID = "" }},
		{"missing author", func(m *document.Metadata) { m.Author = "" }},
		{"missing timestamp", func(m *document.Metadata) { m.Timestamp = time.Time{} }},
		{"missing version", func(m *document.Metadata) { m.Version = document.Version{} }},
		{"wrong stage", func(m *document.Metadata) { m.Stage = document.StageInput }},
	}
	for _, tc := range cases {
		meta := validContentMetadata()
		tc.mutate(&meta)
		if ValidateMetadata(meta, document.StageContent) {
			t.Errorf("%s: should fail validation", tc.name)
		}
	}
}

func TestValidateConfidenceBounds(t *testing.T) {
	meta := validContentMetadata()
	meta.VoiceDNA.Confidence = 1.5
	if ValidateMetadata(meta, document.StageContent) {
		t.Fatal("confidence above 1 must fail")
	}
	meta.VoiceDNA.Confidence = -0.1
	if ValidateMetadata(meta, document.StageContent) {
		t.Fatal("negative confidence must fail")
	}
}

func TestValidateInsights(t *testing.T) {
	meta := document.Metadata{
		ID:         "i-1",
		Timestamp:  time.Now().UTC(),
		Version:    document.InitialVersion,
		Stage:      document.StageInsights,
		Author:     "scholar",
		Source:     &document.Source{Type: "document", Path: "input/raw.md", Hash: "aa00bb11"},
		Frameworks: []string{"first-principles"},
	}
	if !ValidateMetadata(meta, document.StageInsights) {
		t.Fatal("complete insights metadata should validate")
	}
	meta.Frameworks = nil
	if ValidateMetadata(meta, document.StageInsights) {
		t.Fatal("insights without frameworks must fail")
	}
}

func TestValidatePublished(t *testing.T) {
	meta := document.Metadata{
		ID:            "p-1",
		Timestamp:     time.Now().UTC(),
		Version:       document.InitialVersion,
		Stage:         document.StagePublished,
		Author:        "adapter",
		Source:        &document.Source{Content: "c-1"},
		Platform:      "linkedin",
		Optimizations: []string{"hook"},
	}
	if !ValidateMetadata(meta, document.StagePublished) {
		t.Fatal("complete published metadata should validate")
	}
	meta.Optimizations = nil
	if ValidateMetadata(meta, document.StagePublished) {
		t.Fatal("published without optimizations must fail")
	}
}

func TestValidateInputNeedsOnlyBaseFields(t *testing.T) {
	meta := document.Metadata{
		ID:        "in-1",
		Timestamp: time.Now().UTC(),
		Version:   document.InitialVersion,
		Stage:     document.StageInput,
		Author:    "producer",
	}
	if !ValidateMetadata(meta, document.StageInput) {
		t.Fatal("input metadata with base fields should validate")
	}
}

func TestMissingFieldsNamesGaps(t *testing.T) {
	meta := document.Metadata{
		ID:        "c-1",
		Timestamp: time.Now().UTC(),
		Version:   document.InitialVersion,
		Stage:     document.StageContent,
		Author:    "adapter",
	}
	missing := MissingFields(meta, document.StageContent)
	want := map[string]bool{"source.insights": true, "voice_dna": true, "mode": true}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for _, field := range missing {
		if !want[field] {
			t.Fatalf("unexpected missing field %q in %v", field, missing)
		}
	}

	meta.Source = &document.Source{Insights: "i-1"}
	meta.VoiceDNA = &document.VoiceDNA{Profile: "casual", Confidence: 0.8}
	meta.Mode = "draft"
	if got := MissingFields(meta, document.StageContent); len(got) != 0 {
		t.Fatalf("complete metadata reported missing fields: %v", got)
	}
}
