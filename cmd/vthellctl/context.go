package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"vthell-api/internal/app"
	"vthell-api/internal/config"
)

type commandContext struct {
	verbose *bool

	once   sync.Once
	config *config.Config
	app    *app.App
	err    error
}

func newCommandContext(verbose *bool) *commandContext {
	return &commandContext{verbose: verbose}
}

// ensureApp loads the configuration and opens storage on first use
func (c *commandContext) ensureApp(ctx context.Context, logOut io.Writer) (*app.App, error) {
	c.once.Do(func() {
		level := slog.LevelWarn
		if c.verbose != nil && *c.verbose {
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))

		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("load configuration: %w", err)
			return
		}
		a, err := app.New(ctx, cfg)
		if err != nil {
			c.err = err
			return
		}
		c.config = cfg
		c.app = a
	})
	return c.app, c.err
}

func (c *commandContext) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}
