package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPaths  []string
	FeaturePaths []string
	Format       string
	Tags         string
	LogLevel     string
	LogFormat    string
	MetricsPort  int
	ShowVersion  bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}
	var configs, features string

	flag.StringVar(&configs, "config",
		getEnv("SMOKER_CONFIG_FILES", ""),
		"Comma-separated configuration file layers, later files override earlier ones (env: SMOKER_CONFIG_FILES)")

	flag.StringVar(&features, "features",
		getEnv("SMOKER_FEATURES", "features"),
		"Comma-separated feature file or directory paths (env: SMOKER_FEATURES)")

	flag.StringVar(&cfg.Format, "format",
		getEnv("SMOKER_FORMAT", "pretty"),
		"Scenario output format: pretty, progress, junit (env: SMOKER_FORMAT)")

	flag.StringVar(&cfg.Tags, "tags",
		getEnv("SMOKER_TAGS", ""),
		"Tag expression selecting scenarios to run (env: SMOKER_TAGS)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SMOKER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SMOKER_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SMOKER_LOG_FORMAT", "text"),
		"Log format: json, text (env: SMOKER_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("SMOKER_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: SMOKER_METRICS_PORT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")

	flag.Parse()

	cfg.ConfigPaths = splitList(configs)
	cfg.FeaturePaths = splitList(features)
	return cfg
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var parsed int
		if _, err := fmt.Sscanf(value, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return defaultValue
}
