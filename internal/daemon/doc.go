// Package daemon coordinates the long-running papermill process.
//
// It wires configuration, the metadata manager, the stage watcher, and the
// event ledger into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon consumes watcher events, journals them, and
// validates documents as they land in a stage; individual pipeline steps live
// in their own packages while the daemon focuses on startup, shutdown, and
// high-level sequencing.
package daemon
