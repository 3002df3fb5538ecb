package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gapminder/internal/config"
)

// Manager writes pipeline artifacts under the configured output directory.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// Paths returns the resolved paths the manager writes to.
func (m *Manager) Paths() *config.Paths {
	return m.paths
}

// WriteAtomic resolves path and streams fill into it. See WriteFileAtomic.
func (m *Manager) WriteAtomic(path string, fill func(io.Writer) error) error {
	fullPath := m.ResolvePath(path)

	m.logger.Debug("writing file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return WriteFileAtomic(fullPath, fill)
}

// WriteFileAtomic writes through a temporary file in the destination
// directory and renames it into place, so readers never observe a partial
// file. The temporary file is removed on any failure.
func WriteFileAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// ResolvePath resolves a relative path against the output directory.
func (m *Manager) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.paths.OutputDir, path)
}
