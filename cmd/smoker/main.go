// Package main implements the smoker command, a smoke-test runner that
// drives behavior scenarios against external target systems. It loads
// layered JSON configuration, exposes it to scenario steps through
// config: references, and executes the feature files with godog.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cucumber/godog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fabianopinto/smoker-sub002/config"
	"github.com/fabianopinto/smoker-sub002/metric"
	"github.com/fabianopinto/smoker-sub002/steps"
	"github.com/fabianopinto/smoker-sub002/world"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "smoker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	provider, err := loadConfiguration(cliCfg.ConfigPaths)
	if err != nil {
		return err
	}

	metrics := metric.NewMetrics()
	if cliCfg.MetricsPort > 0 {
		if err := serveMetrics(cliCfg.MetricsPort, metrics, logger); err != nil {
			return err
		}
	}

	logger.Info("running features",
		"paths", cliCfg.FeaturePaths,
		"configs", cliCfg.ConfigPaths,
	)

	suite := godog.TestSuite{
		Name: appName,
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			steps.NewContext(provider,
				world.WithLogger(logger),
				world.WithMetrics(metrics),
			).Register(sc)
		},
		Options: &godog.Options{
			Format: cliCfg.Format,
			Paths:  cliCfg.FeaturePaths,
			Tags:   cliCfg.Tags,
			Output: os.Stdout,
		},
	}

	if status := suite.Run(); status != 0 {
		return fmt.Errorf("feature run finished with status %d", status)
	}
	return nil
}

func loadConfiguration(paths []string) (config.Provider, error) {
	loader := config.NewLoader()
	for _, path := range paths {
		loader.AddLayer(path)
	}
	store, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return store, nil
}

func serveMetrics(port int, metrics *metric.Metrics, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving metrics", "addr", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return nil
}
