package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// ErrExists is returned by Save when the target exists and overwriting is off
var ErrExists = errors.New("file already exists")

const fallbackName = "download"

// Manager writes downloaded items below an output directory
type Manager struct {
	outputDir  string
	overwrite  bool
	savedFiles int
	savedBytes int64
	mu         sync.Mutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		overwrite: overwrite,
	}, nil
}

// SanitizeFilename reduces a server supplied name to a single safe path element
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `"'`)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	if strings.ReplaceAll(name, ".", "") == "" || name == string(filepath.Separator) {
		return fallbackName
	}
	return name
}

// Path returns where name is stored, optionally inside a per-source folder
func (m *Manager) Path(folder, name string) string {
	if folder == "" {
		return filepath.Join(m.outputDir, SanitizeFilename(name))
	}
	return filepath.Join(m.outputDir, SanitizeFilename(folder), SanitizeFilename(name))
}

// Exists checks if name has already been saved
func (m *Manager) Exists(folder, name string) bool {
	_, err := os.Stat(m.Path(folder, name))
	return err == nil
}

// Save writes r to folder/name through a temporary file and an atomic rename.
// It returns the final path and the number of bytes written.
func (m *Manager) Save(folder, name string, r io.Reader) (string, int64, error) {
	filename := m.Path(folder, name)
	if !m.overwrite && m.Exists(folder, name) {
		return filename, 0, ErrExists
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// Create temporary file first
	out, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", written, fmt.Errorf("failed to save data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.savedFiles++
	m.savedBytes += written
	m.mu.Unlock()

	return filename, written, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Stats returns the number of files and bytes saved by this manager
func (m *Manager) Stats() (files int, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedFiles, m.savedBytes
}

// Summary describes what has been saved, e.g. "3 files, 1.2 MB"
func (m *Manager) Summary() string {
	files, bytes := m.Stats()
	noun := "files"
	if files == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s, %s", files, noun, humanize.Bytes(uint64(bytes)))
}
