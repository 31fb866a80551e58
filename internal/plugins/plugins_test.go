package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/h5runner/internal/assets"
)

func mustParse(t *testing.T, metafile string) *assets.BuildMetadata {
	t.Helper()
	meta, err := assets.ParseMetadata(metafile)
	require.NoError(t, err)
	return meta
}

// runOnEnd drives every end-of-build callback registered on opts the way
// esbuild does after a successful build.
func runOnEnd(t *testing.T, opts *api.BuildOptions, result *api.BuildResult) []error {
	t.Helper()

	var callbacks []func(*api.BuildResult) (api.OnEndResult, error)
	for _, p := range opts.Plugins {
		p.Setup(api.PluginBuild{
			InitialOptions: opts,
			OnEnd: func(cb func(*api.BuildResult) (api.OnEndResult, error)) {
				callbacks = append(callbacks, cb)
			},
			OnStart:   func(func() (api.OnStartResult, error)) {},
			OnResolve: func(api.OnResolveOptions, func(api.OnResolveArgs) (api.OnResolveResult, error)) {},
			OnLoad:    func(api.OnLoadOptions, func(api.OnLoadArgs) (api.OnLoadResult, error)) {},
			OnDispose: func(func()) {},
		})
	}

	var errs []error
	for _, cb := range callbacks {
		_, err := cb(result)
		errs = append(errs, err)
	}
	return errs
}

// sampleBuild lays out an output directory the way esbuild would for a
// single entry point with one shared chunk and a stylesheet.
func sampleBuild(t *testing.T) (string, *api.BuildOptions, string) {
	t.Helper()

	root := t.TempDir()
	outDir := filepath.Join(root, "dist")
	files := map[string]string{
		"js/app.js":          `import"../chunk/chunk-ABC.js";console.log("app");` + string(make([]byte, 2048)),
		"js/app.css":         "body{margin:0}",
		"chunk/chunk-ABC.js": "export const shared=1;",
		"js/app.js.map":      "{}",
	}
	for name, content := range files {
		path := filepath.Join(outDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	metafile := `{
  "outputs": {
    "dist/js/app.js": {
      "entryPoint": "src/app.ts",
      "cssBundle": "dist/js/app.css",
      "imports": [{"path": "dist/chunk/chunk-ABC.js", "kind": "import-statement"}],
      "bytes": 2100
    },
    "dist/js/app.js.map": {"imports": [], "bytes": 2},
    "dist/js/app.css": {"imports": [], "bytes": 14},
    "dist/chunk/chunk-ABC.js": {"imports": [], "bytes": 22}
  }
}`

	opts := &api.BuildOptions{
		AbsWorkingDir: root,
		Outdir:        outDir,
		PublicPath:    "/",
		EntryPointsAdvanced: []api.EntryPoint{
			{InputPath: "src/app.ts", OutputPath: "app"},
		},
	}
	return outDir, opts, metafile
}
