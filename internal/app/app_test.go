package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/config"
	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

// newTestApp writes the two-country sources under a temp dir and wires an
// application exporting to every format.
func newTestApp(t *testing.T, base string) *Application {
	t.Helper()

	dataDir := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	testutil.WriteSources(t, dataDir, testutil.TwoCountrySources())

	cfg := config.Default()
	cfg.Pipeline.DataDir = dataDir
	for i := range cfg.Pipeline.Sources {
		cfg.Pipeline.Sources[i].Path = cfg.Pipeline.Sources[i].Indicator + ".csv"
	}
	cfg.Output.Dir = filepath.Join(base, "out")
	cfg.Output.Formats = []string{config.FormatCSV, config.FormatXLSX, config.FormatSQLite}
	cfg.Logging.FilePath = filepath.Join(base, "logs", "gapminder.log")
	cfg.Server.RateLimit.Enabled = false
	require.NoError(t, cfg.Validate())

	paths, err := config.GetPaths(cfg, base)
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(cfg, paths, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestApplication_RunPipelineExportsEverySink(t *testing.T) {
	base := t.TempDir()
	a := newTestApp(t, base)
	require.Len(t, a.Sinks, 3)

	report, err := a.RunPipeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, report.Status)
	assert.Equal(t, 4, report.CanonicalRows)

	assert.FileExists(t, a.Paths.CanonicalCSV)
	assert.FileExists(t, a.Paths.CanonicalXLS)
	assert.FileExists(t, a.Paths.DatabaseFile)

	ct, runID, err := a.Store.LoadCanonical(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, runID)
	assert.Equal(t, 4, ct.Len())

	runs, err := a.Store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusCompleted, runs[0].Status)
}

func TestApplication_Router(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	rec := do(t, a.Router, http.MethodGet, "/api/v1/canonical")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, a.Router, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		contains string
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, `"status":"ok"`},
		{"ready", http.MethodGet, "/api/health/ready", http.StatusOK, `"status":"ready"`},
		{"canonical", http.MethodGet, "/api/v1/canonical?country=B", http.StatusOK, `"count":2`},
		{"canonical csv", http.MethodGet, "/api/v1/canonical.csv", http.StatusOK, "year,country,population"},
		{"summary", http.MethodGet, "/api/v1/summary", http.StatusOK, `"rows":4`},
		{"countries", http.MethodGet, "/api/v1/countries", http.StatusOK, `["A","B"]`},
		{"runs", http.MethodGet, "/api/v1/runs", http.StatusOK, `"count":1`},
		{"invalid query", http.MethodGet, "/api/v1/canonical?year_from=x", http.StatusBadRequest, "year_from"},
		{"not found", http.MethodGet, "/api/v2/none", http.StatusNotFound, ""},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "pipeline_runs_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, a.Router, tt.method, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_RestoreFromStore(t *testing.T) {
	base := t.TempDir()
	first := newTestApp(t, base)
	report, err := first.RunPipeline(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	second := newTestApp(t, base)
	require.NoError(t, second.Restore(context.Background()))

	snap, err := second.DataService.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, report.RunID, snap.RunID)
	assert.Equal(t, 4, snap.Table.Len())
}

func TestApplication_ServeShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/api/health", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body map[string]interface{}
		return json.NewDecoder(resp.Body).Decode(&body) == nil && body["status"] == "ok"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
