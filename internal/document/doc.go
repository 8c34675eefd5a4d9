// Package document defines the document model shared across the pipeline:
// the stage enumeration and its transition table, the metadata schema, the
// YAML frontmatter codec, and the content fingerprint used for change
// detection.
package document
