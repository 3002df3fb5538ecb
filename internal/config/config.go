package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// SourceConfig names one wide indicator file.
type SourceConfig struct {
	Indicator string `yaml:"indicator" validate:"required,indicator"`
	Path      string `yaml:"path" validate:"required"`
	Impute    bool   `yaml:"impute"`
	Sheet     string `yaml:"sheet,omitempty"`
}

// PipelineConfig contains reshape and alignment settings
type PipelineConfig struct {
	DataDir     string         `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	Sources     []SourceConfig `yaml:"sources" ignored:"true" validate:"required,len=4,dive"`
	WindowStart string         `yaml:"window_start" envconfig:"WINDOW_START" validate:"required,datetime=2006-01-02"`
	WindowEnd   string         `yaml:"window_end" envconfig:"WINDOW_END" validate:"required,datetime=2006-01-02"`
	MaxParallel int            `yaml:"max_parallel" envconfig:"MAX_PARALLEL" validate:"min=1,max=16"`
	Timeout     time.Duration  `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// OutputConfig contains exporter settings
type OutputConfig struct {
	Dir          string   `yaml:"dir" envconfig:"DIR" validate:"required"`
	Formats      []string `yaml:"formats" envconfig:"FORMATS" validate:"dive,oneof=csv xlsx sqlite"`
	DatabaseFile string   `yaml:"database_file" envconfig:"DATABASE_FILE"`
	WriteLong    bool     `yaml:"write_long" envconfig:"WRITE_LONG"`
	CSVBOM       bool     `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS"`

	// Environment is recorded as deployment.environment.name on every span.
	Environment string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// GAPMINDER_* environment variables, in increasing order of precedence.
// An empty path falls back to the first config file found in the usual
// locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config from %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	for i, f := range c.Output.Formats {
		c.Output.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("indicator", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseIndicator(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	w, err := c.Pipeline.Window()
	if err != nil {
		return apperrors.NewConfigError("invalid pipeline window", err)
	}
	if w.End.Before(w.Start) {
		return apperrors.NewConfigError(fmt.Sprintf("pipeline window end %s is before start", c.Pipeline.WindowEnd), nil)
	}

	seen := make(map[domain.Indicator]bool, len(c.Pipeline.Sources))
	for _, s := range c.Pipeline.Sources {
		ind, _ := domain.ParseIndicator(s.Indicator)
		if seen[ind] {
			return apperrors.NewConfigError(fmt.Sprintf("indicator %s configured twice", ind), nil)
		}
		seen[ind] = true
	}
	return nil
}

// Window parses the configured temporal filter bounds.
func (p PipelineConfig) Window() (domain.Window, error) {
	start, err := time.Parse(time.DateOnly, p.WindowStart)
	if err != nil {
		return domain.Window{}, err
	}
	end, err := time.Parse(time.DateOnly, p.WindowEnd)
	if err != nil {
		return domain.Window{}, err
	}
	return domain.Window{Start: start, End: end}, nil
}

// HasFormat reports whether the output format is enabled.
func (o OutputConfig) HasFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		DefaultConfigFile,
		filepath.Join("configs", DefaultConfigFile),
		filepath.Join("..", "configs", DefaultConfigFile),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// DefaultSources mirrors the published dataset layout. Only the HDI table
// is imputed; the other indicators drop incomplete countries.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Indicator: string(domain.IndicatorPopulation), Path: PopulationFile},
		{Indicator: string(domain.IndicatorLifeExpectancy), Path: LifeExpectancyFile},
		{Indicator: string(domain.IndicatorIncome), Path: IncomeFile},
		{Indicator: string(domain.IndicatorHDI), Path: HumanDevelopmentFile, Impute: true},
	}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: filepath.Join(DefaultLogsDir, "gapminder.log"),
		},
		Pipeline: PipelineConfig{
			DataDir:     DefaultDataDir,
			Sources:     DefaultSources(),
			WindowStart: DefaultWindowStart,
			WindowEnd:   DefaultWindowEnd,
			MaxParallel: DefaultMaxParallel,
			Timeout:     DefaultRunTimeout,
		},
		Output: OutputConfig{
			Dir:          DefaultOutputDir,
			Formats:      []string{FormatCSV},
			DatabaseFile: DefaultDatabaseFile,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "gapminder",
			TraceExporter: "none",
			Metrics:       true,
			Environment:   "development",
			SampleRatio:   1,
		},
	}
}
