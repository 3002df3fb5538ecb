// Package config loads the gapminder pipeline configuration.
//
// # Configuration Sources
//
// Values are layered in increasing order of precedence:
//
//  1. Default values
//  2. A YAML file (gapminder.yaml, configs/gapminder.yaml, or --config)
//  3. Environment variables
//
// # Environment Variables
//
// Every variable uses the GAPMINDER_ prefix and the section name:
//
//	GAPMINDER_LOGGING_LEVEL=debug
//	GAPMINDER_PIPELINE_DATA_DIR=/srv/gapminder_data
//	GAPMINDER_PIPELINE_WINDOW_END=2015-01-01
//	GAPMINDER_OUTPUT_FORMATS=csv,sqlite
//	GAPMINDER_SERVER_ADDR=:9090
//
// The source list cannot be set from the environment; use the YAML file.
//
// # Example File
//
//	pipeline:
//	  data_dir: gapminder_data
//	  sources:
//	    - indicator: population
//	      path: population_total.csv
//	    - indicator: hdi
//	      path: hdi_human_development_index.csv
//	      impute: true
//	output:
//	  dir: output
//	  formats: [csv, xlsx]
//
// # Validation
//
// Load validates struct tags with go-playground/validator and then checks
// that the window is ordered and that no indicator is configured twice.
package config
