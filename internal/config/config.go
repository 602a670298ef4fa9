package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces all environment variables (SEAMARGIN_LOGGING_LEVEL, ...).
const envPrefix = "SEAMARGIN"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Columns   ColumnsConfig   `yaml:"columns" envconfig:"COLUMNS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls the OpenTelemetry tracer provider.
type TelemetryConfig struct {
	Enabled     bool `yaml:"enabled" envconfig:"ENABLED"`
	PrettyPrint bool `yaml:"pretty_print" envconfig:"PRETTY_PRINT"`
}

// AnalysisConfig contains the business knobs of the pipeline: which business
// line is analyzed, how output files are named, and how logical departments
// map to the legal departments used on the ledger side.
type AnalysisConfig struct {
	// BusinessLine filters the subscription dataset; rows of any other
	// business line are excluded from all aggregation.
	BusinessLine string `yaml:"business_line" envconfig:"BUSINESS_LINE" validate:"required"`

	// OutputPrefix is the fixed first segment of every generated filename.
	OutputPrefix string `yaml:"output_prefix" envconfig:"OUTPUT_PREFIX" validate:"required"`

	// DepartmentMap translates 二级部门 names to 法人部门 names. Unmapped
	// names pass through unchanged.
	DepartmentMap map[string]string `yaml:"department_map" envconfig:"DEPARTMENT_MAP"`

	// SplitWorkers bounds the parallel per-department workbook writes.
	SplitWorkers int `yaml:"split_workers" envconfig:"SPLIT_WORKERS" validate:"min=1"`
}

// LegalDepartment maps a logical department name to its ledger-side legal
// department name.
func (a AnalysisConfig) LegalDepartment(department string) string {
	if legal, ok := a.DepartmentMap[department]; ok {
		return legal
	}
	return department
}

// Default returns the built-in configuration. File and environment values are
// layered on top of it, in that order.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/analyzer.log",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			PrettyPrint: false,
		},
		Analysis: AnalysisConfig{
			BusinessLine: "海运",
			OutputPrefix: "低负毛利分析",
			DepartmentMap: map[string]string{
				"国内水运": "国内",
				"国际水运": "国际",
			},
			SplitWorkers: 4,
		},
		Columns: defaultColumns(),
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// SEAMARGIN_* environment variables (highest precedence), then validates it.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if missing := c.Columns.missingLabels(); len(missing) > 0 {
		return fmt.Errorf("column labels must not be empty: %v", missing)
	}
	return nil
}
