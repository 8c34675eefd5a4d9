package document

import "strings"

// Stage represents a document's position in the pipeline.
type Stage string

const (
	StageInput     Stage = "input"
	StageInsights  Stage = "insights"
	StageContent   Stage = "content"
	StagePublished Stage = "published"
	StageArchived  Stage = "archived"
)

var allStages = []Stage{
	StageInput,
	StageInsights,
	StageContent,
	StagePublished,
	StageArchived,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// transitions is the authoritative table of valid stage advancements.
// Archived is terminal and absorbs from every non-terminal stage's
// archive edge.
var transitions = map[Stage][]Stage{
	StageInput:     {StageInsights},
	StageInsights:  {StageContent, StageArchived},
	StageContent:   {StagePublished, StageArchived},
	StagePublished: {StageArchived},
	StageArchived:  {},
}

// successors maps each stage to the stage a fresh add/change event should
// advance the document toward.
var successors = map[Stage]Stage{
	StageInput:    StageInsights,
	StageInsights: StageContent,
	StageContent:  StagePublished,
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Valid reports whether the stage is one of the known pipeline stages.
func (s Stage) Valid() bool {
	_, ok := stageSet[s]
	return ok
}

// Terminal reports whether the stage has no outgoing transitions.
func (s Stage) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether a document may move from one stage to
// another. Pure table lookup, no I/O.
func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStage returns the successor stage a trigger should advance toward.
// Published and archived documents have no successor.
func NextStage(stage Stage) (Stage, bool) {
	next, ok := successors[stage]
	return next, ok
}
