package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/shared/testutil"
	"gapminder/pkg/contracts/domain"
)

func intPtr(v int) *int { return &v }

func sampleTable() domain.CanonicalTable {
	return domain.CanonicalTable{Rows: []domain.CanonicalRow{
		{Year: 1990, Country: "Norway", Population: 4.2e6, LifeExpectancy: 77, Income: 40000, HDI: 0.85},
		{Year: 1990, Country: "Chad", Population: 6e6, LifeExpectancy: 47, Income: 1200, HDI: 0.3},
		{Year: 1991, Country: "Norway", Population: 4.3e6, LifeExpectancy: 77.2, Income: 41000, HDI: 0.86},
		{Year: 1991, Country: "Chad", Population: 6.2e6, LifeExpectancy: 47.5, Income: 1250, HDI: 0.31},
	}}
}

type fakeCanonicalSource struct {
	table domain.CanonicalTable
	runID string
	err   error
}

func (f fakeCanonicalSource) LoadCanonical(context.Context) (domain.CanonicalTable, string, error) {
	return f.table, f.runID, f.err
}

func TestDataService_NotLoaded(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewDataService(logger)

	_, err := s.Canonical(context.Background(), CanonicalFilter{})
	assert.ErrorIs(t, err, ErrNoCanonicalData)
	_, err = s.Countries(context.Background())
	assert.ErrorIs(t, err, ErrNoCanonicalData)
	_, err = s.Summary(context.Background())
	assert.ErrorIs(t, err, ErrNoCanonicalData)
	assert.False(t, s.Loaded())
}

func TestDataService_Canonical(t *testing.T) {
	tests := []struct {
		name    string
		filter  CanonicalFilter
		want    int
		wantErr error
	}{
		{name: "no filter", want: 4},
		{name: "country", filter: CanonicalFilter{Country: "Chad"}, want: 2},
		{name: "year range", filter: CanonicalFilter{YearFrom: intPtr(1991), YearTo: intPtr(1991)}, want: 2},
		{name: "country and year", filter: CanonicalFilter{Country: "Norway", YearTo: intPtr(1990)}, want: 1},
		{name: "no match is empty", filter: CanonicalFilter{Country: "Peru"}, want: 0},
		{name: "inverted range", filter: CanonicalFilter{YearFrom: intPtr(2000), YearTo: intPtr(1990)}, wantErr: ErrInvalidFilter},
	}

	logger, _ := testutil.NewTestLogger(t)
	s := NewDataService(logger)
	s.Publish("run-1", sampleTable())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Canonical(context.Background(), tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Len())
			assert.NotNil(t, got.Rows)
		})
	}
}

func TestDataService_CountriesSorted(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewDataService(logger)
	s.Publish("run-1", sampleTable())

	countries, err := s.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Chad", "Norway"}, countries)
}

func TestDataService_EmptyTable(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewDataService(logger)
	s.Publish("run-empty", domain.CanonicalTable{})

	got, err := s.Canonical(context.Background(), CanonicalFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got.Rows)
	assert.Empty(t, got.Rows)

	countries, err := s.Countries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, countries)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Rows)
}

func TestDataService_PublishReplaces(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	s := NewDataService(logger)
	s.Publish("run-1", sampleTable())
	s.Publish("run-2", sampleTable().Filter(func(r domain.CanonicalRow) bool { return r.Year == 1990 }))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "run-2", snap.RunID)
	assert.Equal(t, 2, snap.Table.Len())
	testutil.AssertLogAttr(t, handler, "run_id", "run-2")
}

func TestDataService_Restore(t *testing.T) {
	tests := []struct {
		name       string
		src        fakeCanonicalSource
		wantLoaded bool
		wantErr    bool
	}{
		{name: "persisted table", src: fakeCanonicalSource{table: sampleTable(), runID: "run-9"}, wantLoaded: true},
		{name: "nothing persisted", src: fakeCanonicalSource{}},
		{name: "store error", src: fakeCanonicalSource{err: errors.New("disk gone")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			s := NewDataService(logger)
			err := s.Restore(context.Background(), tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLoaded, s.Loaded())
		})
	}
}
