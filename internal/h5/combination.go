// Package h5 assembles the bundler configuration for the H5 (web) target.
package h5

import (
	"context"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/combination"
	"github.com/wolfeidau/h5runner/internal/config"
	"github.com/wolfeidau/h5runner/internal/merge"
	"github.com/wolfeidau/h5runner/internal/plugins"
	"github.com/wolfeidau/h5runner/internal/util"
)

const (
	DefaultSourceMapType  = "eval-cheap-module-source-map"
	DefaultPublicPath     = "/"
	DefaultChunkDirectory = "chunk"

	// TerserPluginName is the minimizer key production builds register.
	TerserPluginName = "terserPlugin"
)

// DefaultTerserOptions returns the minifier options user settings are
// merged over.
func DefaultTerserOptions() map[string]any {
	return map[string]any{
		"keep_fnames": true,
		"output": map[string]any{
			"comments":          false,
			"keep_quoted_props": true,
			"quote_keys":        true,
			"beautify":          false,
		},
		"warnings": false,
	}
}

// Combination assembles the H5 configuration into its chain.
type Combination struct {
	*combination.Combination[config.H5BuildConfig]

	// Mode is the resolved build mode, set during processing.
	Mode chain.Mode

	defaultTerserOptions map[string]any
}

func New(appPath string, cfg config.H5BuildConfig, env config.Env) *Combination {
	return &Combination{
		Combination:          combination.New(appPath, cfg, env),
		defaultTerserOptions: DefaultTerserOptions(),
	}
}

// Make processes the held config and runs the registered chain hooks.
func (c *Combination) Make(ctx context.Context) error {
	return c.Combination.Make(ctx, c.Process)
}

// Process fills cfg's defaults and merges every derived section into the
// chain. cfg replaces the held config, so the providers that read c.Config
// see the same values. EnableSourceMap and Mode are set before the plugin
// and module providers read them.
func (c *Combination) Process(cfg config.H5BuildConfig) error {
	c.Config = cfg

	if err := c.Chain.Merge(baseConfig(c.AppPath)); err != nil {
		return err
	}

	mode := util.Cond(cfg.Mode == "", chain.ModeProduction, cfg.Mode)
	enableSourceMap := util.Deref(cfg.EnableSourceMap, !c.Env.IsProduction())
	sourceMapType := util.Cond(cfg.SourceMapType == "", DefaultSourceMapType, cfg.SourceMapType)
	publicPath := util.Cond(cfg.PublicPath == "", DefaultPublicPath, cfg.PublicPath)
	chunkDirectory := util.Cond(cfg.ChunkDirectory == "", DefaultChunkDirectory, cfg.ChunkDirectory)

	c.Mode = mode
	c.EnableSourceMap = enableSourceMap

	output, err := c.GetOutput(OutputParams{
		Mode:           mode,
		PublicPath:     publicPath,
		ChunkDirectory: chunkDirectory,
		CustomOutput:   cfg.Output,
	})
	if err != nil {
		return err
	}

	optimization, err := c.GetOptimization(mode)
	if err != nil {
		return err
	}

	devtool := c.Devtool(enableSourceMap, sourceMapType)
	module := NewWebpackModule(c).GetModules()

	return c.Chain.Merge(chain.Fragment{
		Entry:        cfg.Entry,
		Output:       &output,
		Mode:         mode,
		Devtool:      &devtool,
		Resolve:      &chain.Resolve{Alias: cfg.Alias},
		Plugins:      NewWebpackPlugin(c).GetPlugins(),
		Module:       &module,
		Optimization: &optimization,
	})
}

type OutputParams struct {
	Mode           chain.Mode
	PublicPath     string
	ChunkDirectory string
	CustomOutput   chain.Output
}

// GetOutput derives the output section. The public path always gets a
// trailing slash and, in development only, a leading one. Fields set in
// CustomOutput override the computed ones.
func (c *Combination) GetOutput(p OutputParams) (chain.Output, error) {
	publicPath := util.AddTrailingSlash(p.PublicPath)
	if p.Mode == chain.ModeDevelopment {
		publicPath = util.AddLeadingSlash(publicPath)
	}

	output := chain.Output{
		Path:          c.OutputDir,
		Filename:      "js/[name].js",
		ChunkFilename: p.ChunkDirectory + "/[name].js",
		PublicPath:    publicPath,
	}

	return output.Override(p.CustomOutput)
}

// GetOptimization registers the terser minimizer for production builds
// unless it has been explicitly disabled.
func (c *Combination) GetOptimization(mode chain.Mode) (chain.Optimization, error) {
	terser := c.Config.Terser
	minimizer := map[string]chain.Plugin{}

	if mode == chain.ModeProduction && terser.Enabled() {
		options, err := merge.Recursive(map[string]any{}, c.defaultTerserOptions, terser.Options())
		if err != nil {
			return chain.Optimization{}, err
		}
		minimizer[TerserPluginName] = plugins.NewTerser(options)
	}

	return chain.Optimization{Minimizer: minimizer}, nil
}
