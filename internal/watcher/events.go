package watcher

import (
	"time"

	"papermill/internal/document"
)

// EventType classifies a raw filesystem event.
type EventType string

const (
	EventAdded   EventType = "added"
	EventChanged EventType = "changed"
	EventRemoved EventType = "removed"
)

// Kind classifies the pipeline events delivered on the watcher's channel.
type Kind string

const (
	// KindStarted is emitted once every stage watcher reports ready.
	KindStarted Kind = "started"
	// KindStopped is emitted after all stage watchers shut down.
	KindStopped Kind = "stopped"
	// KindError reports a failure scoped to one stage watcher.
	KindError Kind = "error"
	// KindFile is a dispatched (debounced, deduplicated) file event.
	KindFile Kind = "file-event"
	// KindTrigger advises that a document is eligible to advance a stage.
	KindTrigger Kind = "trigger-stage"
	// KindMoved reports a cross-stage move.
	KindMoved Kind = "file-moved"
	// KindCopied reports a cross-stage copy.
	KindCopied Kind = "file-copied"
	// KindQueueItem re-emits a dispatched event once it has settled on the
	// processing queue.
	KindQueueItem Kind = "process-queue-item"
)

// Event is the single message type delivered to consumers. Which fields are
// populated depends on Kind.
type Event struct {
	Kind      Kind
	Type      EventType
	Path      string
	Stage     document.Stage
	NextStage document.Stage
	From      string
	To        string
	FromStage document.Stage
	ToStage   document.Stage
	Timestamp time.Time
	Retries   int
	Err       error
}
