// Package app wires configuration into the pieces both binaries share.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"patrol-ai/api/internal/config"
	"patrol-ai/api/internal/inspect"
	"patrol-ai/api/internal/inspect/gemini"
	"patrol-ai/api/internal/inspect/rest"
	"patrol-ai/api/internal/logging"
	"patrol-ai/api/internal/session"
)

const (
	janitorEvery = time.Minute
	sessionTTL   = 30 * time.Minute
)

// Deps is what a binary needs after startup.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Sessions *session.Manager

	closers []func() error
}

// Close releases engine clients and flushes the logger.
func (d *Deps) Close() {
	for _, c := range d.closers {
		if err := c(); err != nil {
			d.Log.Warn("close", zap.Error(err))
		}
	}
	_ = d.Log.Sync()
}

// Build loads config, sets up logging, picks the analysis engine and starts
// evicting idle sessions.
func Build(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	sdk, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	engines := &inspect.Engines{
		SDK:  sdk,
		REST: rest.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL),
	}
	eng, err := engines.GetEngine(cfg.GeminiTransport)
	if err != nil {
		_ = sdk.Close()
		return nil, err
	}
	log.Info("engine ready",
		zap.String("engine", eng.Name()),
		zap.String("model", eng.GetModel()))

	sessions := session.NewManager(ctx, eng, log)
	go sessions.RunJanitor(ctx, janitorEvery, sessionTTL)

	return &Deps{
		Config:   cfg,
		Log:      log,
		Sessions: sessions,
		closers:  []func() error{sdk.Close},
	}, nil
}
