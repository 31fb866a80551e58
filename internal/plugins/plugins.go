// Package plugins implements the bundler plugins the H5 target registers by
// name: each one adjusts the esbuild options and, where it has work to do
// once files are written, hooks the end of every build.
package plugins

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/wolfeidau/h5runner/internal/assets"
	"github.com/wolfeidau/h5runner/internal/util"
)

// buildDirs captures where a build runs and writes, taken from the options
// when a plugin is applied.
type buildDirs struct {
	WorkingDir string
	OutDir     string
	PublicPath string
}

func dirsOf(opts *api.BuildOptions) buildDirs {
	return buildDirs{
		WorkingDir: opts.AbsWorkingDir,
		OutDir:     opts.Outdir,
		PublicPath: opts.PublicPath,
	}
}

// url returns the public URL of a file relative to the output directory.
func (d buildDirs) url(rel string) string {
	if d.PublicPath == "" {
		return rel
	}
	return util.AddTrailingSlash(d.PublicPath) + rel
}

// relOutput converts a working-directory relative metafile path into a path
// relative to the output directory, using forward slashes.
func (d buildDirs) relOutput(metaPath string) string {
	abs := metaPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(d.WorkingDir, filepath.FromSlash(metaPath))
	}
	rel, err := filepath.Rel(d.OutDir, abs)
	if err != nil {
		return filepath.ToSlash(metaPath)
	}
	return filepath.ToSlash(rel)
}

// metaPath converts an entry point as written in the options into the form
// esbuild records in the metafile.
func (d buildDirs) metaPath(inputPath string) string {
	if filepath.IsAbs(inputPath) {
		if rel, err := filepath.Rel(d.WorkingDir, inputPath); err == nil {
			inputPath = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(inputPath)), "./")
}

// onEnd registers fn to run after every build that finished without errors.
func onEnd(opts *api.BuildOptions, name string, fn func(meta *assets.BuildMetadata, dirs buildDirs) error) {
	opts.Metafile = true
	dirs := dirsOf(opts)

	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: name,
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 || result.Metafile == "" {
					return api.OnEndResult{}, nil
				}

				meta, err := assets.ParseMetadata(result.Metafile)
				if err != nil {
					return api.OnEndResult{}, err
				}

				if err := fn(meta, dirs); err != nil {
					return api.OnEndResult{}, fmt.Errorf("%s: %w", name, err)
				}
				return api.OnEndResult{}, nil
			})
		},
	})
}

// entryInputs lists the entry points of opts in declaration order.
func entryInputs(opts *api.BuildOptions) []string {
	inputs := make([]string, 0, len(opts.EntryPoints)+len(opts.EntryPointsAdvanced))
	for _, ep := range opts.EntryPointsAdvanced {
		inputs = append(inputs, ep.InputPath)
	}
	inputs = append(inputs, opts.EntryPoints...)
	return inputs
}
