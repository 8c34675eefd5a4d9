// Package metadata owns document persistence: reading and writing documents
// through the frontmatter codec with path and ID caches, metadata
// enrichment and cross-stage inheritance, stage-specific validation, and
// directory-level search and statistics.
//
// Writes go through a temp-file-plus-rename so a concurrent reader never
// observes a half-written document. Decoding stays fail-soft (a malformed
// header reads back as a headerless document); validation is the separate,
// explicit check callers opt into.
package metadata
