// Package logging constructs the slog loggers used across papermill.
//
// Two output formats are supported: a compact console format of the shape
// "TIMESTAMP LEVEL component: message key=value ..." and standard JSON. All
// components tag their loggers with the "component" attribute so console
// output stays scannable.
package logging
