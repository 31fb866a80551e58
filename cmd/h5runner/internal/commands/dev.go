package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/wolfeidau/h5runner/internal/assets"
	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
	"github.com/wolfeidau/h5runner/internal/devserver"
	"github.com/wolfeidau/h5runner/internal/h5"
	"github.com/wolfeidau/h5runner/internal/logger"
	"github.com/wolfeidau/h5runner/internal/plugins"
)

type DevCmd struct {
	ProjectFlags `embed:""`

	Host string `help:"dev server host, overrides devServer.host" env:"H5RUNNER_HOST"`
	Port int    `help:"dev server port, overrides devServer.port" env:"H5RUNNER_PORT"`
}

func (c *DevCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer setupTelemetry(ctx, globals)()

	combination, err := c.assemble(ctx, func(cfg *config.H5BuildConfig) {
		cfg.Mode = chain.ModeDevelopment
	})
	if err != nil {
		return fmt.Errorf("failed to assemble config: %w", err)
	}

	serverCfg := c.serverConfig(combination)
	pipeline := assets.New(combination.Chain, assets.Config{})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.Watch(ctx)
	})
	g.Go(func() error {
		return devserver.ListenAndServe(ctx, serverCfg, log)
	})

	return g.Wait()
}

func (c *DevCmd) serverConfig(combination *h5.Combination) devserver.Config {
	cfg := combination.Config
	serverCfg := devserver.Config{
		Host:        cfg.DevServer.Host,
		Port:        cfg.DevServer.Port,
		CORSOrigins: cfg.DevServer.CORSOrigins,
		Root:        outputDir(combination),
	}
	if c.Host != "" {
		serverCfg.Host = c.Host
	}
	if c.Port != 0 {
		serverCfg.Port = c.Port
	}

	if cfg.Router.Mode == config.RouterModeBrowser {
		serverCfg.Fallback = cfg.HTMLPluginOption.Filename
		if serverCfg.Fallback == "" {
			serverCfg.Fallback = plugins.DefaultHTMLFilename
		}
	}

	return serverCfg
}
