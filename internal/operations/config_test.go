package operations

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gapminder/internal/config"
	"gapminder/pkg/contracts/domain"
)

func TestConfigFromApp(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.MaxParallel = 2
	cfg.Pipeline.Sources[0].Path = "/abs/pop.csv"

	paths, err := config.GetPaths(cfg, "/base")
	require.NoError(t, err)

	c, specs, err := ConfigFromApp(cfg, paths)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultWindow, c.Window)
	assert.Equal(t, 2, c.MaxParallel)
	require.Len(t, specs, 4)
	assert.Equal(t, "/abs/pop.csv", specs[0].Path)
	assert.Equal(t, filepath.Join("/base", config.DefaultDataDir, config.LifeExpectancyFile), specs[1].Path)

	var imputed []domain.Indicator
	for _, s := range specs {
		if s.Impute {
			imputed = append(imputed, s.Indicator)
		}
	}
	assert.Equal(t, []domain.Indicator{domain.IndicatorHDI}, imputed)
}

func TestConfigFromApp_BadWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.WindowEnd = "2018"

	_, _, err := ConfigFromApp(cfg, &config.Paths{})
	assert.Error(t, err)
}

func TestConfig_MaxParallelFloor(t *testing.T) {
	assert.Equal(t, 1, (&Config{}).maxParallel())
	assert.Equal(t, DefaultMaxParallel, NewConfig().maxParallel())
}
