// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultTasksFile        = "tasks.json"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultGeneratorTimeout = 120 // seconds
	DefaultGeneratorRetries = 2
	DefaultGeneratorBackoff = 2 // seconds
)

// GeneratorConfig configures the external content generator command.
type GeneratorConfig struct {
	Binary         string   `toml:"binary"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Retries        int      `toml:"retries"`
	BackoffSeconds int      `toml:"backoff_seconds"`
}

// Config holds the full configuration for taskweave.
type Config struct {
	// Paths
	TasksFile  string `toml:"tasks_file"`
	SchemaFile string `toml:"schema_file"`

	// Project
	ProjectName string `toml:"project_name"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Generator
	Generator GeneratorConfig `toml:"generator"`
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.taskweave/taskweave.toml or OS config dir)
// 3. Project config file (taskweave.toml or .taskweave.toml in cwd)
// 4. Environment variables (TASKWEAVE_*)
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userFile := findUserConfigFile(); userFile != "" {
		if err := loadConfigFile(cfg, userFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}
	if projFile := findProjectConfigFile(); projFile != "" {
		if err := loadConfigFile(cfg, projFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg.TasksFile = expandPath(cfg.TasksFile)
	cfg.SchemaFile = expandPath(cfg.SchemaFile)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.TasksFile = DefaultTasksFile
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Generator = GeneratorConfig{
		TimeoutSeconds: DefaultGeneratorTimeout,
		Retries:        DefaultGeneratorRetries,
		BackoffSeconds: DefaultGeneratorBackoff,
	}
}

func loadConfigFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return err
	}
	return nil
}

// findUserConfigFile looks for the per-user config in ~/.taskweave and
// the OS-specific config directory.
func findUserConfigFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".taskweave", "taskweave.toml")
		if fileExists(p) {
			return p
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "taskweave", "taskweave.toml")
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// findProjectConfigFile looks for taskweave.toml or .taskweave.toml in
// the current directory.
func findProjectConfigFile() string {
	for _, name := range []string{"taskweave.toml", ".taskweave.toml"} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TASKWEAVE_TASKS"); v != "" {
		cfg.TasksFile = v
	}
	if v := os.Getenv("TASKWEAVE_SCHEMA"); v != "" {
		cfg.SchemaFile = v
	}
	if v := os.Getenv("TASKWEAVE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKWEAVE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKWEAVE_GENERATOR"); v != "" {
		cfg.Generator.Binary = v
	}
	if v := os.Getenv("TASKWEAVE_GENERATOR_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Generator.TimeoutSeconds = n
		}
	}
}

// parseFlags registers the global flags and parses args. Flags override
// every other source.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.TasksFile, "file", cfg.TasksFile, "Path to the tasks file")
	fs.StringVar(&cfg.TasksFile, "f", cfg.TasksFile, "Path to the tasks file (shorthand)")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to a JSON Schema for the tasks file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.StringVar(&cfg.Generator.Binary, "generator", cfg.Generator.Binary, "Content generator binary")
	return fs.Parse(args)
}

// expandPath expands a leading ~/ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return expanded
	}
	if strings.HasPrefix(expanded, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, expanded[2:])
		}
	}
	return expanded
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
