package document

import "testing"

func TestCanTransitionTable(t *testing.T) {
	valid := map[[2]Stage]bool{
		{StageInput, StageInsights}:     true,
		{StageInsights, StageContent}:   true,
		{StageInsights, StageArchived}:  true,
		{StageContent, StagePublished}:  true,
		{StageContent, StageArchived}:   true,
		{StagePublished, StageArchived}: true,
	}

	for _, from := range AllStages() {
		for _, to := range AllStages() {
			want := valid[[2]Stage{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	for _, to := range AllStages() {
		if CanTransition(StageArchived, to) {
			t.Fatalf("archived must have no outgoing transition, got archived -> %s", to)
		}
	}
	if !StageArchived.Terminal() {
		t.Fatal("archived should report terminal")
	}
	if StageInput.Terminal() {
		t.Fatal("input should not report terminal")
	}
}

func TestNextStage(t *testing.T) {
	cases := []struct {
		stage Stage
		next  Stage
		ok    bool
	}{
		{StageInput, StageInsights, true},
		{StageInsights, StageContent, true},
		{StageContent, StagePublished, true},
		{StagePublished, "", false},
		{StageArchived, "", false},
	}
	for _, tc := range cases {
		next, ok := NextStage(tc.stage)
		if ok != tc.ok || next != tc.next {
			t.Errorf("NextStage(%s) = (%q, %v), want (%q, %v)", tc.stage, next, ok, tc.next, tc.ok)
		}
	}
}

func TestParseStage(t *testing.T) {
	if stage, ok := ParseStage("  Insights "); !ok || stage != StageInsights {
		t.Fatalf("expected insights, got %q ok=%v", stage, ok)
	}
	if _, ok := ParseStage("drafts"); ok {
		t.Fatal("unknown stage should not parse")
	}
	if _, ok := ParseStage(""); ok {
		t.Fatal("empty stage should not parse")
	}
}
