package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nomadprotocol/agents/pkg/config"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/metrics"
)

// app bundles everything a subcommand needs, built once from the
// process's flags and shared config document.
type app struct {
	Config   *config.AgentConfig
	Secrets  *config.SecretsDocument
	DB       *index.DB
	Log      *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Server
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("agent: log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// buildApp loads config, secrets, the index, and the metrics server. It
// does not start the metrics server or any agent loop; the caller's
// RunE owns that so a subcommand that only needs a subset of the
// wiring (e.g. a future one-shot inspection command) isn't forced to
// pay for all of it.
func buildApp(flags *rootFlags) (*app, error) {
	log, err := newLogger(flags.logLevel)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, fmt.Errorf("agent: load config: %w", err)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Warn("secrets unavailable; signing operations will fail", zap.Error(err))
		secrets = &config.SecretsDocument{}
	}

	db, err := index.Open(cfg.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("agent: open index %q: %w", cfg.IndexDir, err)
	}

	port := flags.metricsPort
	if port == 0 {
		port = cfg.MetricsPort
	}
	reg := metrics.NewRegistry()
	srv := metrics.NewServer(port, reg, log)

	return &app{
		Config:   cfg,
		Secrets:  secrets,
		DB:       db,
		Log:      log,
		Registry: reg,
		Metrics:  srv,
	}, nil
}
