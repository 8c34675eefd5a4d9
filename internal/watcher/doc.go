// Package watcher monitors one directory per pipeline stage and turns raw
// filesystem notifications into debounced, content-aware pipeline events.
//
// Raw events pass a filter chain (extension allow-list, size bounds, ignore
// patterns), collapse behind a per-(type,path) debounce timer, and — for
// change events — are suppressed entirely when the content fingerprint
// matches the cached one, so metadata-only touches never reach consumers.
// Surviving events land on a timestamped processing queue and are delivered
// as typed Events over a bounded channel; a periodic drain re-emits queue
// entries after a short settling window for slow-starting consumers.
//
// Stage watchers are independent: an error on one is reported as a scoped
// error event and the others keep running. There is no cross-stage ordering
// guarantee — a file moved forward and archived inside one debounce window
// may surface as two dispatches in either order.
package watcher
