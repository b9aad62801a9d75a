package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration. Everything else lives in the
// config file and PCAXIS_* environment overrides.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Debug       bool
	ShowVersion bool
	Validate    bool
}

func parseFlags(args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("PCAXIS_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: PCAXIS_CONFIG)")
	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("PCAXIS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PCAXIS_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("PCAXIS_LOG_FORMAT", "json"),
		"Log format: json, text (env: PCAXIS_LOG_FORMAT)")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
