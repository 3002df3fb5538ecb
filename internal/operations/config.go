package operations

import (
	"fmt"
	"time"

	"gapminder/internal/config"
	"gapminder/pkg/contracts/domain"
)

// Config represents the run execution configuration
type Config struct {
	// Window is the inclusive date range kept by the reshaper.
	Window domain.Window `json:"window"`

	// MaxParallel bounds concurrent load+reshape branches.
	MaxParallel int `json:"max_parallel"`

	// Timeout bounds a whole run; zero means no limit.
	Timeout time.Duration `json:"timeout"`
}

// NewConfig returns the default run configuration
func NewConfig() *Config {
	return &Config{
		Window:      domain.DefaultWindow,
		MaxParallel: DefaultMaxParallel,
		Timeout:     DefaultRunTimeout,
	}
}

// ConfigFromApp maps the pipeline section of the application config and
// resolves each source path against the data directory.
func ConfigFromApp(cfg *config.Config, paths *config.Paths) (*Config, []SourceSpec, error) {
	w, err := cfg.Pipeline.Window()
	if err != nil {
		return nil, nil, err
	}

	c := &Config{
		Window:      w,
		MaxParallel: cfg.Pipeline.MaxParallel,
		Timeout:     cfg.Pipeline.Timeout,
	}

	specs := make([]SourceSpec, 0, len(cfg.Pipeline.Sources))
	for _, s := range cfg.Pipeline.Sources {
		ind, err := domain.ParseIndicator(s.Indicator)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", s.Path, err)
		}
		specs = append(specs, SourceSpec{
			Indicator: ind,
			Path:      paths.SourcePath(s),
			Sheet:     s.Sheet,
			Impute:    s.Impute,
		})
	}
	return c, specs, nil
}

func (c *Config) maxParallel() int {
	if c.MaxParallel < 1 {
		return 1
	}
	return c.MaxParallel
}
