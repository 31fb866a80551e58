package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/h5runner/internal/assets"
	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
	"github.com/wolfeidau/h5runner/internal/h5"
	"github.com/wolfeidau/h5runner/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Tracing bool
	Version string
}

// ProjectFlags locate the application and its build config.
type ProjectFlags struct {
	AppPath string `help:"application root directory" default:"." env:"H5RUNNER_APP_PATH"`
	Config  string `help:"config file (yaml, json or toml), defaults to h5.config.* in the application root" env:"H5RUNNER_CONFIG"`
	Mode    string `help:"build mode: development or production, overrides the config file" env:"H5RUNNER_MODE"`
}

// loadConfig reads the build config and applies the mode flag.
func (f ProjectFlags) loadConfig() (string, *config.H5BuildConfig, error) {
	appPath, err := filepath.Abs(f.AppPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve app path: %w", err)
	}

	var cfg *config.H5BuildConfig
	if f.Config != "" {
		cfg, err = config.Load(f.Config)
	} else {
		cfg, err = config.LoadDir(appPath)
	}
	if err != nil {
		return "", nil, err
	}

	switch chain.Mode(f.Mode) {
	case "":
	case chain.ModeDevelopment, chain.ModeProduction:
		cfg.Mode = chain.Mode(f.Mode)
	default:
		return "", nil, fmt.Errorf("invalid mode %q, expected development or production", f.Mode)
	}

	return appPath, cfg, nil
}

// assemble loads the config, lets adjust change it, and assembles the chain.
func (f ProjectFlags) assemble(ctx context.Context, adjust func(*config.H5BuildConfig)) (*h5.Combination, error) {
	appPath, cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}

	env := config.LookupEnv(os.Getenv)
	combination := h5.New(appPath, *cfg, env)
	if err := combination.Make(ctx); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("app_path", appPath).
		Str("env", string(env)).
		Str("mode", string(combination.Chain.Mode)).
		Msg("Assembled build configuration")

	return combination, nil
}

// outputDir returns the directory the bundler writes to, which honours an
// output.path override.
func outputDir(combination *h5.Combination) string {
	if dir := assets.OutDir(combination.Chain); dir != "" {
		return dir
	}
	return combination.OutputDir
}

// setupTelemetry starts the exporters when tracing is enabled and returns
// the matching shutdown.
func setupTelemetry(ctx context.Context, globals *Globals) func() {
	log := zerolog.Ctx(ctx)
	if !globals.Tracing {
		return func() {}
	}

	log.Info().Msg("Tracing is enabled")
	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "h5runner", Version: globals.Version})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}
