// Package ledger persists pipeline events to a SQLite journal so daemon
// activity survives restarts and can be inspected from the CLI. The store
// is append-mostly: events are recorded as they happen and read back as a
// reverse-chronological tail or as per-stage counts.
package ledger
