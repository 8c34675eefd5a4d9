package metadata

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"papermill/internal/document"
)

// EnrichOptions selects which enrichment passes run. Zero limits fall back
// to the defaults below.
type EnrichOptions struct {
	UpdateHash     bool
	ExtractTags    bool
	MaxTags        int
	MinWordLength  int
	Stats          bool
	WordsPerMinute int
}

const (
	defaultMaxTags        = 5
	defaultMinWordLength  = 5
	defaultWordsPerMinute = 200
)

var lowercase = cases.Lower(language.Und)

// EnrichMetadata returns a new metadata value with the requested enrichment
// applied. The input is never mutated.
func EnrichMetadata(meta document.Metadata, content string, opts EnrichOptions) document.Metadata {
	out := meta.Clone()

	if opts.UpdateHash {
		out.Hash = document.FingerprintString(content)
	}

	if opts.ExtractTags {
		maxTags := opts.MaxTags
		if maxTags <= 0 {
			maxTags = defaultMaxTags
		}
		minLength := opts.MinWordLength
		if minLength <= 0 {
			minLength = defaultMinWordLength
		}
		out.Tags = extractTags(content, maxTags, minLength)
	}

	if opts.Stats {
		wpm := opts.WordsPerMinute
		if wpm <= 0 {
			wpm = defaultWordsPerMinute
		}
		words := len(splitWords(content))
		lines := countLines(content)
		out.Stats = &document.ContentStats{
			Words:          words,
			Lines:          lines,
			ReadingMinutes: (words + wpm - 1) / wpm,
		}
	}

	return out
}

// extractTags picks the most frequent words of at least minLength runes,
// case-folded, ties broken alphabetically for deterministic output.
func extractTags(content string, maxTags, minLength int) []string {
	counts := make(map[string]int)
	for _, word := range splitWords(content) {
		folded := lowercase.String(word)
		if len([]rune(folded)) < minLength {
			continue
		}
		counts[folded]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxTags {
		words = words[:maxTags]
	}
	return words
}

func splitWords(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	lines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lines++
	}
	return lines
}
