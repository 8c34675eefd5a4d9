package metadata

import "errors"

var (
	// ErrNotFound marks reads of paths that do not exist.
	ErrNotFound = errors.New("document not found")
	// ErrWrite marks directory-creation or file-write failures.
	ErrWrite = errors.New("document write failure")
)
