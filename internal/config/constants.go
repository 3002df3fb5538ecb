package config

import "time"

// Application constants
const (
	AppName = "Gapminder"

	// EnvPrefix namespaces every environment override, e.g. GAPMINDER_LOGGING_LEVEL.
	EnvPrefix = "GAPMINDER"

	DefaultConfigFile = "gapminder.yaml"

	// Source layout of the published dataset
	DefaultDataDir       = "gapminder_data"
	PopulationFile       = "population_total.csv"
	LifeExpectancyFile   = "life_expectancy_years.csv"
	IncomeFile           = "income_per_person_gdppercapita_ppp_inflation_adjusted.csv"
	HumanDevelopmentFile = "hdi_human_development_index.csv"
	DefaultWindowStart   = "1990-01-01"
	DefaultWindowEnd     = "2018-01-01"
	DefaultMaxParallel   = 4
	DefaultRunTimeout    = 5 * time.Minute

	// Output
	DefaultOutputDir    = "output"
	DefaultLogsDir      = "logs"
	DefaultDatabaseFile = "gapminder.db"
	CanonicalCSVName    = "canonical.csv"
	CanonicalXLSXName   = "canonical.xlsx"
	FormatCSV           = "csv"
	FormatXLSX          = "xlsx"
	FormatSQLite        = "sqlite"

	// Server
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimit       = 20 // requests per second
	DefaultBurstSize       = 40
)
