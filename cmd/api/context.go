package main

import (
	"context"
	"errors"

	"cloudsync/internal/config"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.AppConfig) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) (*config.AppConfig, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.AppConfig)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}
