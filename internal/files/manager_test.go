package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/config"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "canonical.csv")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := fmt.Fprint(w, "year,country\n")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,country\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteFileAtomic_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canonical.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestManager_ResolvesAgainstOutputDir(t *testing.T) {
	out := t.TempDir()
	m := NewManager(&config.Paths{OutputDir: out}, nil)

	require.NoError(t, m.WriteAtomic("long/hdi.csv", func(w io.Writer) error {
		_, err := w.Write([]byte("x"))
		return err
	}))

	assert.FileExists(t, filepath.Join(out, "long", "hdi.csv"))
	assert.Equal(t, filepath.Join(out, "long", "hdi.csv"), m.ResolvePath("long/hdi.csv"))
	assert.Equal(t, "/abs/x.csv", m.ResolvePath("/abs/x.csv"))
}
