// Package ui renders human-facing output for the imgrab CLI: styled status
// lines, per-item byte progress bars, run totals and an optional desktop
// notification when a run finishes. Logs go through pkg/logger; this package
// is only for what the user reads.
package ui
