package combination

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
)

func TestNew_Roots(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.H5BuildConfig
		sourceDir  string
		outputDir  string
		outputRoot string
	}{
		{
			name:       "defaults",
			cfg:        config.H5BuildConfig{},
			sourceDir:  filepath.Join("/app", "src"),
			outputDir:  filepath.Join("/app", "dist"),
			outputRoot: "dist",
		},
		{
			name:       "custom roots",
			cfg:        config.H5BuildConfig{SourceRoot: "client", OutputRoot: "build/h5"},
			sourceDir:  filepath.Join("/app", "client"),
			outputDir:  filepath.Join("/app", "build/h5"),
			outputRoot: "build/h5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("/app", tt.cfg, config.EnvProduction)
			assert.Equal(t, tt.sourceDir, c.SourceDir)
			assert.Equal(t, tt.outputDir, c.OutputDir)
			assert.Equal(t, tt.outputRoot, c.OutputRoot)
			assert.NotNil(t, c.Chain)
		})
	}
}

func TestDevtool(t *testing.T) {
	c := New("/app", config.H5BuildConfig{}, config.EnvProduction)

	assert.Equal(t, chain.Devtool("source-map"), c.Devtool(true, "source-map"))
	assert.Equal(t, chain.DevtoolNone, c.Devtool(false, "source-map"))
}

func TestMake_RunsProcessThenHooksInOrder(t *testing.T) {
	c := New("/app", config.H5BuildConfig{Mode: chain.ModeDevelopment}, config.EnvDevelopment)

	var calls []string
	c.ModifyChain(func(ctx context.Context, cc *chain.Config) error {
		calls = append(calls, "hook1:"+string(cc.Mode))
		return nil
	})
	c.ModifyChain(func(ctx context.Context, cc *chain.Config) error {
		calls = append(calls, "hook2")
		cc.Target = "es2020"
		return nil
	})

	err := c.Make(context.Background(), func(cfg config.H5BuildConfig) error {
		calls = append(calls, "process")
		return c.Chain.Merge(chain.Fragment{Mode: cfg.Mode})
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"process", "hook1:development", "hook2"}, calls)
	assert.Equal(t, "es2020", c.Chain.Target)
}

func TestMake_Errors(t *testing.T) {
	boom := errors.New("boom")

	c := New("/app", config.H5BuildConfig{}, config.EnvProduction)
	err := c.Make(context.Background(), func(config.H5BuildConfig) error { return boom })
	require.ErrorIs(t, err, boom)

	hookCalled := false
	c.ModifyChain(func(context.Context, *chain.Config) error {
		hookCalled = true
		return boom
	})
	err = c.Make(context.Background(), func(config.H5BuildConfig) error { return nil })
	require.ErrorIs(t, err, boom)
	assert.True(t, hookCalled)
	assert.Contains(t, err.Error(), "chain hook 0")
}
