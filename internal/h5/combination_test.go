package h5

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
	"github.com/wolfeidau/h5runner/internal/plugins"
	"github.com/wolfeidau/h5runner/internal/util"
)

func assemble(t *testing.T, cfg config.H5BuildConfig, env config.Env) *Combination {
	t.Helper()
	c := New(t.TempDir(), cfg, env)
	require.NoError(t, c.Make(context.Background()))
	return c
}

func terserOptions(t *testing.T, opt chain.Optimization) map[string]any {
	t.Helper()
	require.Contains(t, opt.Minimizer, TerserPluginName)
	terser, ok := opt.Minimizer[TerserPluginName].(*plugins.Terser)
	require.True(t, ok)
	return terser.Options
}

func TestProcess_Defaults(t *testing.T) {
	c := assemble(t, config.H5BuildConfig{}, config.EnvProduction)

	assert.Equal(t, chain.ModeProduction, c.Chain.Mode)
	assert.Equal(t, c.AppPath, c.Chain.Context)
	assert.Equal(t, DefaultTarget, c.Chain.Target)
	assert.Empty(t, c.Chain.Entry)
	assert.Equal(t, chain.Output{
		Path:          filepath.Join(c.AppPath, "dist"),
		Filename:      "js/[name].js",
		ChunkFilename: "chunk/[name].js",
		PublicPath:    "/",
	}, c.Chain.Output)
	assert.False(t, c.EnableSourceMap)
	assert.Equal(t, chain.DevtoolNone, c.Chain.Devtool)
	assert.Equal(t, defaultExtensions, c.Chain.Resolve.Extensions)
	assert.Equal(t, defaultMainFields, c.Chain.Resolve.MainFields)
	assert.Contains(t, c.Chain.Plugins, DefinePluginName)
	assert.Contains(t, c.Chain.Plugins, HTMLPluginName)
	assert.Contains(t, c.Chain.Module.Rules, "script")
	assert.Len(t, c.Chain.Optimization.Minimizer, 1)
}

func TestProcess_SourceMap(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.H5BuildConfig
		env         config.Env
		wantEnabled bool
		wantDevtool chain.Devtool
	}{
		{
			name:        "production env disables by default",
			env:         config.EnvProduction,
			wantEnabled: false,
			wantDevtool: chain.DevtoolNone,
		},
		{
			name:        "development env enables by default",
			env:         config.EnvDevelopment,
			wantEnabled: true,
			wantDevtool: DefaultSourceMapType,
		},
		{
			name:        "explicit enable wins over env",
			cfg:         config.H5BuildConfig{EnableSourceMap: util.Ptr(true), SourceMapType: "source-map"},
			env:         config.EnvProduction,
			wantEnabled: true,
			wantDevtool: "source-map",
		},
		{
			name:        "explicit disable wins over env",
			cfg:         config.H5BuildConfig{EnableSourceMap: util.Ptr(false)},
			env:         config.EnvDevelopment,
			wantEnabled: false,
			wantDevtool: chain.DevtoolNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := assemble(t, tt.cfg, tt.env)
			assert.Equal(t, tt.wantEnabled, c.EnableSourceMap)
			assert.Equal(t, tt.wantDevtool, c.Chain.Devtool)
			assert.Equal(t, tt.wantEnabled, c.Chain.Module.Rules["script"].SourceMap)
			assert.Equal(t, tt.wantEnabled, c.Chain.Module.Rules["style"].SourceMap)
		})
	}
}

func TestProcess_PublicPath(t *testing.T) {
	tests := []struct {
		name string
		mode chain.Mode
		want string
	}{
		{name: "development forces leading slash", mode: chain.ModeDevelopment, want: "/assets/"},
		{name: "production keeps relative prefix", mode: chain.ModeProduction, want: "assets/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := assemble(t, config.H5BuildConfig{Mode: tt.mode, PublicPath: "assets"}, config.EnvProduction)
			assert.Equal(t, tt.want, c.Chain.Output.PublicPath)
		})
	}
}

func TestProcess_MergesUserSections(t *testing.T) {
	c := assemble(t, config.H5BuildConfig{
		Entry:          map[string]string{"app": "./src/app.ts"},
		Alias:          map[string]string{"@": "./src"},
		ChunkDirectory: "async",
		Output:         chain.Output{Filename: "js/[name].[contenthash:8].js"},
	}, config.EnvProduction)

	assert.Equal(t, map[string]string{"app": "./src/app.ts"}, c.Chain.Entry)
	assert.Equal(t, map[string]string{"@": "./src"}, c.Chain.Resolve.Alias)
	assert.Equal(t, "js/[name].[contenthash:8].js", c.Chain.Output.Filename)
	assert.Equal(t, "async/[name].js", c.Chain.Output.ChunkFilename)
	assert.Equal(t, defaultExtensions, c.Chain.Resolve.Extensions)
}

func TestProcess_ReplacesHeldConfig(t *testing.T) {
	c := New(t.TempDir(), config.H5BuildConfig{}, config.EnvProduction)

	require.NoError(t, c.Process(config.H5BuildConfig{
		Manifest: true,
		Terser:   &config.TerserConfig{Enable: util.Ptr(false)},
	}))

	assert.True(t, c.Config.Manifest)
	assert.Contains(t, c.Chain.Plugins, ManifestPluginName)
	assert.Empty(t, c.Chain.Optimization.Minimizer)
}

func TestMake_RunsHooksAfterProcess(t *testing.T) {
	c := New(t.TempDir(), config.H5BuildConfig{}, config.EnvProduction)
	c.ModifyChain(func(_ context.Context, ch *chain.Config) error {
		assert.Equal(t, chain.ModeProduction, ch.Mode)
		ch.Target = "es2020"
		return nil
	})

	require.NoError(t, c.Make(context.Background()))
	assert.Equal(t, "es2020", c.Chain.Target)
}

func TestGetOutput(t *testing.T) {
	c := New("/app", config.H5BuildConfig{}, config.EnvProduction)
	base := OutputParams{Mode: chain.ModeProduction, PublicPath: "/", ChunkDirectory: "chunk"}

	tests := []struct {
		name   string
		custom chain.Output
		want   chain.Output
	}{
		{
			name: "computed",
			want: chain.Output{Path: "/app/dist", Filename: "js/[name].js", ChunkFilename: "chunk/[name].js", PublicPath: "/"},
		},
		{
			name:   "path override",
			custom: chain.Output{Path: "/elsewhere"},
			want:   chain.Output{Path: "/elsewhere", Filename: "js/[name].js", ChunkFilename: "chunk/[name].js", PublicPath: "/"},
		},
		{
			name:   "filename override",
			custom: chain.Output{Filename: "[name].js"},
			want:   chain.Output{Path: "/app/dist", Filename: "[name].js", ChunkFilename: "chunk/[name].js", PublicPath: "/"},
		},
		{
			name:   "chunk filename override",
			custom: chain.Output{ChunkFilename: "c/[id].js"},
			want:   chain.Output{Path: "/app/dist", Filename: "js/[name].js", ChunkFilename: "c/[id].js", PublicPath: "/"},
		},
		{
			name:   "public path override",
			custom: chain.Output{PublicPath: "https://cdn.example.com/app"},
			want:   chain.Output{Path: "/app/dist", Filename: "js/[name].js", ChunkFilename: "chunk/[name].js", PublicPath: "https://cdn.example.com/app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := base
			params.CustomOutput = tt.custom

			first, err := c.GetOutput(params)
			require.NoError(t, err)
			second, err := c.GetOutput(params)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, first); diff != "" {
				t.Errorf("GetOutput() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, first, second)
		})
	}
}

func TestGetOptimization(t *testing.T) {
	tests := []struct {
		name       string
		mode       chain.Mode
		terser     *config.TerserConfig
		wantTerser bool
	}{
		{name: "production default", mode: chain.ModeProduction, wantTerser: true},
		{name: "production explicitly enabled", mode: chain.ModeProduction, terser: &config.TerserConfig{Enable: util.Ptr(true)}, wantTerser: true},
		{name: "production disabled", mode: chain.ModeProduction, terser: &config.TerserConfig{Enable: util.Ptr(false)}},
		{name: "development default", mode: chain.ModeDevelopment},
		{name: "development enabled", mode: chain.ModeDevelopment, terser: &config.TerserConfig{Enable: util.Ptr(true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("/app", config.H5BuildConfig{Terser: tt.terser}, config.EnvProduction)

			opt, err := c.GetOptimization(tt.mode)
			require.NoError(t, err)

			if !tt.wantTerser {
				assert.Empty(t, opt.Minimizer)
				return
			}
			assert.Len(t, opt.Minimizer, 1)
			if diff := cmp.Diff(DefaultTerserOptions(), terserOptions(t, opt)); diff != "" {
				t.Errorf("terser options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetOptimization_MergesUserOptions(t *testing.T) {
	c := New("/app", config.H5BuildConfig{
		Terser: &config.TerserConfig{Config: map[string]any{
			"output":   map[string]any{"comments": true},
			"compress": map[string]any{"drop_console": true},
		}},
	}, config.EnvProduction)

	opt, err := c.GetOptimization(chain.ModeProduction)
	require.NoError(t, err)

	want := map[string]any{
		"keep_fnames": true,
		"output": map[string]any{
			"comments":          true,
			"keep_quoted_props": true,
			"quote_keys":        true,
			"beautify":          false,
		},
		"compress": map[string]any{"drop_console": true},
		"warnings": false,
	}
	if diff := cmp.Diff(want, terserOptions(t, opt)); diff != "" {
		t.Errorf("terser options mismatch (-want +got):\n%s", diff)
	}

	// the defaults are never mutated by a merge
	if diff := cmp.Diff(DefaultTerserOptions(), c.defaultTerserOptions); diff != "" {
		t.Errorf("defaults mutated (-want +got):\n%s", diff)
	}
}
