// Package combination provides the state shared by every platform's
// configuration assembler: application roots, the build environment and the
// chain being assembled.
package combination

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
)

// BuildConfig is the constraint on a platform's configuration shape.
type BuildConfig interface {
	Roots() (sourceRoot, outputRoot string)
}

// Hook adjusts the assembled chain after a platform has processed its config.
type Hook func(ctx context.Context, c *chain.Config) error

// Combination holds what a platform assembler needs besides its own logic.
// One instance serves exactly one build.
type Combination[T BuildConfig] struct {
	AppPath    string
	Config     T
	Chain      *chain.Config
	Env        config.Env
	SourceRoot string
	OutputRoot string
	SourceDir  string
	OutputDir  string

	// EnableSourceMap is resolved during processing and read by the plugin
	// and module providers.
	EnableSourceMap bool

	hooks []Hook
}

func New[T BuildConfig](appPath string, cfg T, env config.Env) *Combination[T] {
	sourceRoot, outputRoot := cfg.Roots()
	return &Combination[T]{
		AppPath:    appPath,
		Config:     cfg,
		Chain:      chain.New(),
		Env:        env,
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		SourceDir:  filepath.Join(appPath, sourceRoot),
		OutputDir:  filepath.Join(appPath, outputRoot),
	}
}

// ModifyChain registers a hook run by Make once processing is done.
func (c *Combination[T]) ModifyChain(h Hook) {
	c.hooks = append(c.hooks, h)
}

// Devtool returns sourceMapType when source maps are enabled and the
// disabled devtool otherwise.
func (c *Combination[T]) Devtool(enableSourceMap bool, sourceMapType string) chain.Devtool {
	if !enableSourceMap {
		return chain.DevtoolNone
	}
	return chain.Devtool(sourceMapType)
}

// Make runs process over the held config, then every registered hook in
// registration order.
func (c *Combination[T]) Make(ctx context.Context, process func(T) error) error {
	if err := process(c.Config); err != nil {
		return fmt.Errorf("failed to process build config: %w", err)
	}

	for i, hook := range c.hooks {
		if err := hook(ctx, c.Chain); err != nil {
			return fmt.Errorf("chain hook %d failed: %w", i, err)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("app_path", c.AppPath).
		Str("mode", string(c.Chain.Mode)).
		Int("plugins", len(c.Chain.Plugins)).
		Int("rules", len(c.Chain.Module.Rules)).
		Msg("Assembled build configuration")

	return nil
}
