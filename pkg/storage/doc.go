// Package storage writes downloaded items to disk for the imgrab CLI.
//
// The media core never persists anything; this package is one consumer of its
// task stream. Names come from the task's naming context and are reduced to a
// single path element before use, so a hostile Content-Disposition cannot
// escape the output directory.
//
// Features:
//   - Atomic file writes using temporary files and rename
//   - Optional per-source folders (one per album or gallery)
//   - Existing files are skipped unless overwriting is enabled
//   - Running totals of files and bytes written
//
// Usage:
//
//	manager, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.OverwriteExisting)
//	path, n, err := manager.Save(accessor.ID(), task.Context().Filename(), task)
//	if errors.Is(err, storage.ErrExists) {
//	    // already downloaded
//	}
package storage
