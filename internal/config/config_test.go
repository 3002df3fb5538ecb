package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gapminder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	w, err := cfg.Pipeline.Window()
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(domain.DefaultWindow.Start))
	assert.True(t, w.End.Equal(domain.DefaultWindow.End))
}

func TestDefaultSources_OnlyHDIImputed(t *testing.T) {
	for _, s := range DefaultSources() {
		assert.Equal(t, s.Indicator == string(domain.IndicatorHDI), s.Impute, s.Indicator)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
pipeline:
  data_dir: /data
  window_end: "2010-01-01"
  max_parallel: 2
output:
  formats: [csv, sqlite]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/data", cfg.Pipeline.DataDir)
	assert.Equal(t, "2010-01-01", cfg.Pipeline.WindowEnd)
	assert.Equal(t, DefaultWindowStart, cfg.Pipeline.WindowStart)
	assert.Equal(t, 2, cfg.Pipeline.MaxParallel)
	assert.Len(t, cfg.Pipeline.Sources, 4)
	assert.True(t, cfg.Output.HasFormat(FormatSQLite))
	assert.False(t, cfg.Output.HasFormat(FormatXLSX))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":7000\"\n")
	t.Setenv("GAPMINDER_SERVER_ADDR", ":9090")
	t.Setenv("GAPMINDER_PIPELINE_TIMEOUT", "30s")
	t.Setenv("GAPMINDER_OUTPUT_FORMATS", "csv,xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Output.Formats)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad window date", "pipeline:\n  window_start: \"1990\"\n"},
		{"reversed window", "pipeline:\n  window_start: \"2018-01-01\"\n  window_end: \"1990-01-01\"\n"},
		{"unknown format", "output:\n  formats: [parquet]\n"},
		{"parallel zero", "pipeline:\n  max_parallel: 0\n"},
		{"unknown indicator", `
pipeline:
  sources:
    - {indicator: population, path: a.csv}
    - {indicator: life_expectancy, path: b.csv}
    - {indicator: income, path: c.csv}
    - {indicator: gini, path: d.csv}
`},
		{"duplicate indicator", `
pipeline:
  sources:
    - {indicator: population, path: a.csv}
    - {indicator: life_expectancy, path: b.csv}
    - {indicator: income, path: c.csv}
    - {indicator: population, path: d.csv}
`},
		{"three sources", `
pipeline:
  sources:
    - {indicator: population, path: a.csv}
    - {indicator: life_expectancy, path: b.csv}
    - {indicator: income, path: c.csv}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfig))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Pipeline.DataDir = "/abs/data"

	paths, err := GetPaths(cfg, base)
	require.NoError(t, err)

	assert.Equal(t, "/abs/data", paths.DataDir)
	assert.Equal(t, filepath.Join(base, DefaultOutputDir), paths.OutputDir)
	assert.Equal(t, filepath.Join(base, DefaultOutputDir, DefaultDatabaseFile), paths.DatabaseFile)
	assert.Equal(t, filepath.Join(base, DefaultOutputDir, "long", "hdi.csv"), paths.LongPath("hdi"))
	assert.Equal(t, "/abs/data/income.csv", paths.SourcePath(SourceConfig{Path: "income.csv"}))
	assert.Equal(t, "/x/y.csv", paths.SourcePath(SourceConfig{Path: "/x/y.csv"}))

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.LongDir))
	assert.True(t, FileExists(paths.LogsDir))
}
