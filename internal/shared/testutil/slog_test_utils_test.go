package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/pkg/contracts/domain"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "reshaper")).Info("done")

		require.Equal(t, 1, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "reshaper"))
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}

func TestWide(t *testing.T) {
	tbl := Wide("pop", []string{"country", "1990", "1991"}, []string{"A", "1", "2"})

	assert.Equal(t, "country", tbl.CountryHeader)
	assert.Equal(t, []string{"1990", "1991"}, tbl.YearLabels)
	assert.Equal(t, []string{"A"}, tbl.Countries)
	assert.Equal(t, "2", tbl.Cell(0, 1))
}

func TestTwoCountrySources(t *testing.T) {
	src := TwoCountrySources()
	require.Len(t, src, len(domain.CanonicalIndicators))
	for _, ind := range domain.CanonicalIndicators {
		rows, cols := src[ind].Shape()
		assert.Equal(t, 2, rows, ind)
		assert.Equal(t, 2, cols, ind)
	}
}

func TestBufferedSlogHandler_Groups(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.WithGroup("request").Info("served",
		slog.String("method", "GET"),
		slog.Group("route", slog.String("pattern", "/api/v1/canonical")))

	assert.True(t, handler.ContainsAttr("request.method", "GET"))
	assert.True(t, handler.ContainsAttr("request.route.pattern", "/api/v1/canonical"))
	assert.False(t, handler.ContainsAttr("method", "GET"))
}
