// Package cfg loads engine settings from a YAML file and/or environment
// variables, with documented defaults and fail-fast validation.
package cfg

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings carries the resolved configuration for a scoring run.
type Settings struct {
	Alpha              float64 // significance cutoff, p > Alpha zeroes a column
	SubsampleThreshold int     // sample size above which subsampling kicks in
	Permutations       int     // permutation budget for the permutation estimator
	Estimator          string  // tie_corrected, no_ties or permutation
	Workers            int     // concurrent column scorers, 0 = GOMAXPROCS
	Seed               int64   // batch seed, 0 = wall clock
	DataPath           string  // optional bbolt report store location
	MetricsPort        int     // optional Prometheus listen port, 0 disables
}

type ConfigFile struct {
	Selection struct {
		Alpha              float64 `yaml:"alpha"`
		SubsampleThreshold int     `yaml:"subsampleThreshold"`
		Permutations       int     `yaml:"permutations"`
		Estimator          string  `yaml:"estimator"`
		Workers            int     `yaml:"workers"`
		Seed               int64   `yaml:"seed"`
	} `yaml:"selection"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves settings from a YAML file named by CONFIG_FILE when set,
// otherwise from environment variables alone. A .env file in the working
// directory is picked up first. Environment variables always win over file
// values.
func Load() (Settings, error) {
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	r := &envReader{}
	settings := Settings{
		Alpha:              r.floatOr("SELECTION_ALPHA", config.Selection.Alpha, 0.01),
		SubsampleThreshold: r.intOr("SUBSAMPLE_THRESHOLD", config.Selection.SubsampleThreshold, 1000),
		Permutations:       r.intOr("PERMUTATIONS", config.Selection.Permutations, 1000),
		Estimator:          r.stringOr("ESTIMATOR", config.Selection.Estimator, "tie_corrected"),
		Workers:            r.intOr("WORKERS", config.Selection.Workers, 0),
		Seed:               r.int64Or("SEED", config.Selection.Seed, 0),
		DataPath:           r.stringOr("DATA_PATH", config.System.DataPath, ""),
		MetricsPort:        r.intOr("METRICS_PORT", config.System.MetricsPort, 0),
	}
	if r.err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", r.err)
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	r := &envReader{}
	settings := Settings{
		Alpha:              r.floatOr("SELECTION_ALPHA", 0, 0.01),
		SubsampleThreshold: r.intOr("SUBSAMPLE_THRESHOLD", 0, 1000),
		Permutations:       r.intOr("PERMUTATIONS", 0, 1000),
		Estimator:          r.stringOr("ESTIMATOR", "", "tie_corrected"),
		Workers:            r.intOr("WORKERS", 0, 0),
		Seed:               r.int64Or("SEED", 0, 0),
		DataPath:           os.Getenv("DATA_PATH"), // optional
		MetricsPort:        r.intOr("METRICS_PORT", 0, 0),
	}
	if r.err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", r.err)
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// envReader resolves one setting at a time with the precedence environment >
// config file > default, keeping the first parse failure instead of silently
// falling back to the default. Callers build the full Settings literal and
// then check err once.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value string) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}

func (r *envReader) stringOr(key, configValue, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

func (r *envReader) intOr(key string, configValue, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, v)
			return defaultValue
		}
		return i
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func (r *envReader) int64Or(key string, configValue, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.fail(key, v)
			return defaultValue
		}
		return i
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func (r *envReader) floatOr(key string, configValue, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, v)
			return defaultValue
		}
		return f
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings rejects configuration that would let a scoring run start
// and then fail mid-batch.
func validateSettings(settings *Settings) error {
	if settings.Alpha <= 0 || settings.Alpha >= 1 {
		return fmt.Errorf("significance cutoff must be between 0 and 1 exclusive, got %f", settings.Alpha)
	}
	if settings.SubsampleThreshold <= 0 || settings.SubsampleThreshold > 1_000_000 {
		return fmt.Errorf("subsample threshold must be between 1 and 1000000, got %d", settings.SubsampleThreshold)
	}
	if settings.Permutations <= 0 || settings.Permutations > 1_000_000 {
		return fmt.Errorf("permutation count must be between 1 and 1000000, got %d", settings.Permutations)
	}
	switch settings.Estimator {
	case "tie_corrected", "no_ties", "permutation":
	default:
		return fmt.Errorf("estimator must be tie_corrected, no_ties or permutation, got %q", settings.Estimator)
	}
	if settings.Workers < 0 || settings.Workers > 1024 {
		return fmt.Errorf("workers must be between 0 and 1024, got %d", settings.Workers)
	}
	if settings.MetricsPort != 0 && (settings.MetricsPort < 1024 || settings.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	return nil
}
