package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/operations"
	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

type fakeRunner struct {
	report   *operations.RunReport
	err      error
	running  bool
	got      []operations.SourceSpec
	progress *operations.RunProgress
}

func (f *fakeRunner) Run(_ context.Context, sources []operations.SourceSpec) (*operations.RunReport, error) {
	f.got = sources
	return f.report, f.err
}

func (f *fakeRunner) Running() bool { return f.running }

func (f *fakeRunner) Progress() (operations.RunProgress, bool) {
	if f.progress == nil {
		return operations.RunProgress{}, false
	}
	return *f.progress, true
}

type fakeHistory struct {
	runs []domain.RunRecord
	err  error
}

func (f fakeHistory) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	if limit > 0 && limit < len(f.runs) {
		return f.runs[:limit], f.err
	}
	return f.runs, f.err
}

func TestOperationService_Trigger(t *testing.T) {
	sources := []operations.SourceSpec{{Indicator: domain.IndicatorPopulation, Path: "population.csv"}}

	tests := []struct {
		name        string
		runner      *fakeRunner
		wantErr     bool
		wantRunID   string
		wantPublish bool
	}{
		{
			name: "success publishes",
			runner: &fakeRunner{report: &operations.RunReport{
				RunID:  "run-1",
				Status: domain.RunStatusCompleted,
				Result: &domain.RunResult{RunID: "run-1", Canonical: sampleTable()},
			}},
			wantRunID:   "run-1",
			wantPublish: true,
		},
		{
			name: "sink failure still publishes",
			runner: &fakeRunner{
				report: &operations.RunReport{
					RunID:  "run-2",
					Status: domain.RunStatusFailed,
					Result: &domain.RunResult{RunID: "run-2", Canonical: sampleTable()},
				},
				err: errors.New("sink csv: disk full"),
			},
			wantErr:     true,
			wantRunID:   "run-2",
			wantPublish: true,
		},
		{
			name: "source failure keeps previous table",
			runner: &fakeRunner{
				report: &operations.RunReport{RunID: "run-3", Status: domain.RunStatusFailed},
				err:    errors.New("reshape failed"),
			},
			wantErr:   true,
			wantRunID: "previous",
		},
		{
			name:      "run in progress",
			runner:    &fakeRunner{err: operations.ErrRunInProgress},
			wantErr:   true,
			wantRunID: "previous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			data := NewDataService(logger)
			data.Publish("previous", domain.CanonicalTable{})
			s := NewOperationService(tt.runner, sources, data, nil, logger)

			_, err := s.Trigger(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, sources, tt.runner.got)
			snap, serr := data.Snapshot()
			require.NoError(t, serr)
			assert.Equal(t, tt.wantRunID, snap.RunID)
			if tt.wantPublish {
				assert.Equal(t, 4, snap.Table.Len())
			}
		})
	}
}

func TestOperationService_Runs(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	data := NewDataService(logger)

	t.Run("without history", func(t *testing.T) {
		s := NewOperationService(&fakeRunner{}, nil, data, nil, logger)
		runs, err := s.Runs(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
		assert.NotNil(t, runs)
	})

	t.Run("with history", func(t *testing.T) {
		h := fakeHistory{runs: []domain.RunRecord{{RunID: "b"}, {RunID: "a"}}}
		s := NewOperationService(&fakeRunner{}, nil, data, h, logger)
		runs, err := s.Runs(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "b", runs[0].RunID)
	})

	t.Run("history error", func(t *testing.T) {
		s := NewOperationService(&fakeRunner{}, nil, data, fakeHistory{err: errors.New("locked")}, logger)
		_, err := s.Runs(context.Background(), 0)
		assert.Error(t, err)
	})
}

func TestOperationService_SourcesCopy(t *testing.T) {
	sources := []operations.SourceSpec{{Indicator: domain.IndicatorHDI, Path: "hdi.csv", Impute: true}}
	s := NewOperationService(&fakeRunner{}, sources, NewDataService(nil), nil, nil)

	got := s.Sources()
	got[0].Path = "changed.csv"
	assert.Equal(t, "hdi.csv", s.Sources()[0].Path)
}

func TestOperationService_Progress(t *testing.T) {
	s := NewOperationService(&fakeRunner{}, nil, NewDataService(nil), nil, nil)
	_, ok := s.Progress()
	assert.False(t, ok)

	want := operations.RunProgress{RunID: "r1", Status: domain.RunStatusRunning}
	s = NewOperationService(&fakeRunner{progress: &want}, nil, NewDataService(nil), nil, nil)
	got, ok := s.Progress()
	require.True(t, ok)
	assert.Equal(t, want, got)
}
