package document

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is a semantic version triple. It serializes to frontmatter as the
// familiar "major.minor.patch" scalar.
type Version struct {
	Major int
	Minor int
	Patch int
}

// InitialVersion is assigned to documents written without an explicit version.
var InitialVersion = Version{Major: 1}

// IsZero reports whether the version is unset. Satisfies yaml.IsZeroer so
// omitempty drops absent versions.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalYAML renders the version as a scalar string.
func (v Version) MarshalYAML() (any, error) {
	return v.String(), nil
}

// UnmarshalYAML accepts "major.minor.patch" scalars.
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseVersion(node.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(value string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("parse version %q: want major.minor.patch", value)
	}
	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("parse version %q: component %q is not a non-negative integer", value, part)
		}
		numbers[i] = n
	}
	return Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// Source describes where a document came from. Which fields are populated
// depends on the stage: insights documents record the raw origin
// (type/path/hash), content documents point at their insights parent, and
// published documents point at their content parent.
type Source struct {
	Type     string `yaml:"type,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Hash     string `yaml:"hash,omitempty"`
	Insights string `yaml:"insights,omitempty"`
	Content  string `yaml:"content,omitempty"`
}

// VoiceDNA identifies the writing-voice profile a content document was
// generated against.
type VoiceDNA struct {
	Profile    string  `yaml:"profile"`
	Confidence float64 `yaml:"confidence"`
}

// Engagement holds platform counters for a published document.
type Engagement struct {
	Likes    int `yaml:"likes,omitempty"`
	Shares   int `yaml:"shares,omitempty"`
	Comments int `yaml:"comments,omitempty"`
	Clicks   int `yaml:"clicks,omitempty"`
}

// ContentStats carries enrichment counters derived from the body.
type ContentStats struct {
	Words          int `yaml:"words"`
	Lines          int `yaml:"lines"`
	ReadingMinutes int `yaml:"reading_minutes"`
}

// Attachment references a named side-file belonging to a document.
type Attachment struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
	Path string `yaml:"path"`
	Size int64  `yaml:"size,omitempty"`
}

// HistoryEntry records one prior version of a document.
type HistoryEntry struct {
	Version   Version   `yaml:"version"`
	Timestamp time.Time `yaml:"timestamp"`
	Author    string    `yaml:"author,omitempty"`
	Change    string    `yaml:"change,omitempty"`
	Diff      string    `yaml:"diff,omitempty"`
}

// Metadata is the frontmatter header of a document. Base fields apply to
// every stage; the remaining fields are stage-specific and validated by
// metadata.ValidateMetadata rather than by the codec, which stays total.
type Metadata struct {
	ID        string    `yaml:"id,omitempty"`
	Timestamp time.Time `yaml:"timestamp,omitempty"`
	Version   Version   `yaml:"version,omitempty"`
	Stage     Stage     `yaml:"stage,omitempty"`
	Author    string    `yaml:"author,omitempty"`
	Hash      string    `yaml:"hash,omitempty"`
	Tags      []string  `yaml:"tags,omitempty"`

	Source        *Source       `yaml:"source,omitempty"`
	Frameworks    []string      `yaml:"frameworks,omitempty"`
	VoiceDNA      *VoiceDNA     `yaml:"voice_dna,omitempty"`
	Mode          string        `yaml:"mode,omitempty"`
	Platform      string        `yaml:"platform,omitempty"`
	Optimizations []string      `yaml:"optimizations,omitempty"`
	Engagement    *Engagement   `yaml:"engagement,omitempty"`
	Hashtags      []string      `yaml:"hashtags,omitempty"`
	ScheduledTime *time.Time    `yaml:"scheduled_time,omitempty"`
	Stats         *ContentStats `yaml:"stats,omitempty"`
}

// IsZero reports whether the metadata carries no information at all.
func (m Metadata) IsZero() bool {
	return m.ID == "" && m.Timestamp.IsZero() && m.Version.IsZero() &&
		m.Stage == "" && m.Author == "" && m.Hash == "" &&
		len(m.Tags) == 0 && m.Source == nil && len(m.Frameworks) == 0 &&
		m.VoiceDNA == nil && m.Mode == "" && m.Platform == "" &&
		len(m.Optimizations) == 0 && m.Engagement == nil &&
		len(m.Hashtags) == 0 && m.ScheduledTime == nil && m.Stats == nil
}

// Clone returns a deep copy so enrichment and inheritance can return new
// values without aliasing the caller's slices or pointers.
func (m Metadata) Clone() Metadata {
	cp := m
	cp.Tags = cloneStrings(m.Tags)
	cp.Frameworks = cloneStrings(m.Frameworks)
	cp.Optimizations = cloneStrings(m.Optimizations)
	cp.Hashtags = cloneStrings(m.Hashtags)
	if m.Source != nil {
		source := *m.Source
		cp.Source = &source
	}
	if m.VoiceDNA != nil {
		voice := *m.VoiceDNA
		cp.VoiceDNA = &voice
	}
	if m.Engagement != nil {
		engagement := *m.Engagement
		cp.Engagement = &engagement
	}
	if m.ScheduledTime != nil {
		scheduled := *m.ScheduledTime
		cp.ScheduledTime = &scheduled
	}
	if m.Stats != nil {
		stats := *m.Stats
		cp.Stats = &stats
	}
	return cp
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return cp
}

// Document is the unit of work moving through the pipeline.
type Document struct {
	Metadata    Metadata
	Content     string
	Attachments []Attachment
	History     []HistoryEntry
}
