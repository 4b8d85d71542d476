// Package config loads csvdiff settings from defaults, a YAML file and the environment.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CSVDIFF_REPORT_FORMAT.
const EnvPrefix = "CSVDIFF"

// --- Configuration Structs ---

type ReaderConfig struct {
	Type       string   `mapstructure:"type"`
	Delimiter  string   `mapstructure:"delimiter"`
	NullValues []string `mapstructure:"null_values"`
	ChunkSize  int      `mapstructure:"chunk_size"`
}

type DiffConfig struct {
	IgnoreColumns []string `mapstructure:"ignore_columns"`
	Tolerance     float64  `mapstructure:"tolerance"`
}

type ReportConfig struct {
	Format             string `mapstructure:"format"`
	MaxDataDifferences int    `mapstructure:"max_data_differences"`
	MaxPositionMatches int    `mapstructure:"max_position_matches"`
}

type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Encoding    string `mapstructure:"encoding"`
	MetricsFile string `mapstructure:"metrics_file"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Prefork bool   `mapstructure:"prefork"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Reader ReaderConfig `mapstructure:"reader"`
	Diff   DiffConfig   `mapstructure:"diff"`
	Report ReportConfig `mapstructure:"report"`
	Output OutputConfig `mapstructure:"output"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// --- Load Configuration ---

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("reader.type", "")
	v.SetDefault("reader.delimiter", "")
	v.SetDefault("reader.null_values", []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "#N/A", "None"})
	v.SetDefault("reader.chunk_size", 10000)
	v.SetDefault("diff.ignore_columns", []string{})
	v.SetDefault("diff.tolerance", 0.0)
	v.SetDefault("report.format", "text")
	v.SetDefault("report.max_data_differences", 50)
	v.SetDefault("report.max_position_matches", 20)
	v.SetDefault("output.path", "")
	v.SetDefault("output.encoding", "utf-8")
	v.SetDefault("output.metrics_file", "")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.prefork", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
}

// LoadConfig reads the YAML file at configPath, if any, into v and
// unmarshals the merged settings.
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg, err := LoadConfig(New(), "")
	if err != nil {
		// defaults always decode
		panic(err)
	}
	return cfg
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Reader.Validate(); err != nil {
		return fmt.Errorf("reader configuration error: %w", err)
	}
	if err := c.Diff.Validate(); err != nil {
		return fmt.Errorf("diff configuration error: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report configuration error: %w", err)
	}
	return nil
}

func (rc *ReaderConfig) Validate() error {
	if err := validate(rc.Type == "" || rc.Type == "csv" || rc.Type == "tsv",
		"unsupported reader type %q", rc.Type); err != nil {
		return err
	}
	if err := validate(rc.Delimiter == `\t` || utf8.RuneCountInString(rc.Delimiter) <= 1,
		"delimiter must be a single character, got %q", rc.Delimiter); err != nil {
		return err
	}
	return validate(rc.ChunkSize >= 0, "chunk size must not be negative")
}

// DelimiterRune returns the configured delimiter, or zero for the reader type's default.
func (rc *ReaderConfig) DelimiterRune() rune {
	if rc.Delimiter == "" {
		return 0
	}
	if rc.Delimiter == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(rc.Delimiter)
	return r
}

func (dc *DiffConfig) Validate() error {
	return validate(dc.Tolerance >= 0, "tolerance must not be negative")
}

func (rc *ReportConfig) Validate() error {
	format := strings.ToLower(rc.Format)
	if err := validate(format == "text" || format == "json",
		"unsupported report format %q", rc.Format); err != nil {
		return err
	}
	if err := validate(rc.MaxDataDifferences >= 0, "max data differences must not be negative"); err != nil {
		return err
	}
	return validate(rc.MaxPositionMatches >= 0, "max position matches must not be negative")
}
