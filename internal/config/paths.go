package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories and files used by a run.
// Relative configuration paths resolve against BaseDir.
type Paths struct {
	BaseDir      string
	DataDir      string
	OutputDir    string
	LogsDir      string
	LongDir      string
	DatabaseFile string
	CanonicalCSV string
	CanonicalXLS string
}

// GetPaths resolves the configured paths against baseDir. An empty baseDir
// means the current working directory.
func GetPaths(cfg *Config, baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	outputDir := resolve(cfg.Output.Dir)
	dbFile := cfg.Output.DatabaseFile
	if dbFile == "" {
		dbFile = DefaultDatabaseFile
	}
	if !filepath.IsAbs(dbFile) {
		dbFile = filepath.Join(outputDir, dbFile)
	}

	return &Paths{
		BaseDir:      baseDir,
		DataDir:      resolve(cfg.Pipeline.DataDir),
		OutputDir:    outputDir,
		LogsDir:      resolve(filepath.Dir(cfg.Logging.FilePath)),
		LongDir:      filepath.Join(outputDir, "long"),
		DatabaseFile: dbFile,
		CanonicalCSV: filepath.Join(outputDir, CanonicalCSVName),
		CanonicalXLS: filepath.Join(outputDir, CanonicalXLSXName),
	}, nil
}

// EnsureDirectories creates the output and log directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LongDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SourcePath resolves a source file against the data directory.
func (p *Paths) SourcePath(s SourceConfig) string {
	if filepath.IsAbs(s.Path) {
		return s.Path
	}
	return filepath.Join(p.DataDir, s.Path)
}

// LongPath returns the per-indicator long table file.
func (p *Paths) LongPath(name string) string {
	return filepath.Join(p.LongDir, name+".csv")
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("database", p.DatabaseFile),
			slog.String("canonical_csv", p.CanonicalCSV),
		))
}
