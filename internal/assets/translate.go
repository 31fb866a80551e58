package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/wolfeidau/h5runner/internal/chain"
)

var (
	ErrNoEntryPoints = errors.New("no entry points configured")
	ErrNoOutputPath  = errors.New("no output path configured")
)

const (
	defaultEntryNames = "[dir]/[name]"
	defaultChunkNames = "chunk/[name]-[hash]"
	defaultAssetNames = "static/[name]-[hash]"
)

var hashPlaceholder = regexp.MustCompile(`\[(?:contenthash|chunkhash|fullhash|hash)(?::\d+)?\]`)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var loaders = map[chain.Loader]api.Loader{
	chain.LoaderJS:      api.LoaderJS,
	chain.LoaderJSX:     api.LoaderJSX,
	chain.LoaderTS:      api.LoaderTS,
	chain.LoaderTSX:     api.LoaderTSX,
	chain.LoaderCSS:     api.LoaderCSS,
	chain.LoaderJSON:    api.LoaderJSON,
	chain.LoaderText:    api.LoaderText,
	chain.LoaderFile:    api.LoaderFile,
	chain.LoaderDataURL: api.LoaderDataURL,
}

// Translate converts an assembled configuration into esbuild build options.
// Plugins are applied in name order, then minimizers in name order.
func Translate(c *chain.Config) (api.BuildOptions, error) {
	if len(c.Entry) == 0 {
		return api.BuildOptions{}, ErrNoEntryPoints
	}
	if c.Output.Path == "" {
		return api.BuildOptions{}, ErrNoOutputPath
	}

	target, ok := targets[strings.ToLower(c.Target)]
	if !ok && c.Target != "" {
		return api.BuildOptions{}, fmt.Errorf("unsupported target %q", c.Target)
	}

	opts := api.BuildOptions{
		AbsWorkingDir:       c.Context,
		EntryPointsAdvanced: entryPoints(c.Entry),
		Bundle:              true,
		Splitting:           true,
		Write:               true,
		Metafile:            true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              target,
		Outdir:              OutDir(c),
		EntryNames:          namePattern(c.Output.Filename, defaultEntryNames),
		ChunkNames:          namePattern(c.Output.ChunkFilename, defaultChunkNames),
		AssetNames:          namePattern(c.Output.AssetModuleFilename, defaultAssetNames),
		PublicPath:          c.Output.PublicPath,
		Sourcemap:           sourceMap(c.Devtool),
		SourcesContent:      api.SourcesContentExclude,
		Alias:               c.Resolve.Alias,
		ResolveExtensions:   c.Resolve.Extensions,
		MainFields:          c.Resolve.MainFields,
		TreeShaking:         api.TreeShakingTrue,
		LogLevel:            api.LogLevelSilent,
		Loader:              map[string]api.Loader{},
	}

	if err := applyRules(&opts, c.Module.Rules); err != nil {
		return api.BuildOptions{}, err
	}

	for _, name := range sortedKeys(c.Plugins) {
		if err := c.Plugins[name].Apply(&opts); err != nil {
			return api.BuildOptions{}, fmt.Errorf("plugin %s: %w", name, err)
		}
	}

	for _, name := range sortedKeys(c.Optimization.Minimizer) {
		if err := c.Optimization.Minimizer[name].Apply(&opts); err != nil {
			return api.BuildOptions{}, fmt.Errorf("minimizer %s: %w", name, err)
		}
	}

	return opts, nil
}

// OutDir returns the output directory of c. A relative output path resolves
// against the configuration's context.
func OutDir(c *chain.Config) string {
	path := c.Output.Path
	if path == "" || filepath.IsAbs(path) || c.Context == "" {
		return path
	}
	return filepath.Join(c.Context, path)
}

func entryPoints(entry map[string]string) []api.EntryPoint {
	points := make([]api.EntryPoint, 0, len(entry))
	for _, name := range sortedKeys(entry) {
		points = append(points, api.EntryPoint{InputPath: entry[name], OutputPath: name})
	}
	return points
}

// namePattern converts a webpack filename pattern into an esbuild one: hash
// placeholders collapse into [hash] and a literal extension is dropped since
// esbuild appends its own.
func namePattern(pattern, def string) string {
	if pattern == "" {
		return def
	}

	pattern = hashPlaceholder.ReplaceAllString(pattern, "[hash]")
	pattern = strings.ReplaceAll(pattern, "[id]", "[name]")
	pattern = strings.ReplaceAll(pattern, ".[ext]", "")
	pattern = strings.ReplaceAll(pattern, "[ext]", "")
	if ext := filepath.Ext(pattern); !strings.HasPrefix(ext, ".[") {
		pattern = strings.TrimSuffix(pattern, ext)
	}

	return strings.TrimPrefix(pattern, "./")
}

func sourceMap(devtool chain.Devtool) api.SourceMap {
	d := string(devtool)
	switch {
	case !devtool.Enabled():
		return api.SourceMapNone
	case strings.Contains(d, "inline"), strings.HasPrefix(d, "eval"):
		return api.SourceMapInline
	case strings.HasPrefix(d, "hidden"), strings.HasPrefix(d, "nosources"):
		return api.SourceMapExternal
	default:
		return api.SourceMapLinked
	}
}

func applyRules(opts *api.BuildOptions, rules map[string]chain.Rule) error {
	for _, name := range sortedKeys(rules) {
		rule := rules[name]

		if rule.Loader != "" {
			loader, ok := loaders[rule.Loader]
			if !ok {
				return fmt.Errorf("rule %s: unsupported loader %q", name, rule.Loader)
			}
			for _, ext := range rule.Extensions {
				opts.Loader[ext] = loader
			}
		}

		if rule.SourceMap {
			opts.SourcesContent = api.SourcesContentInclude
		}

		if rule.InlineLimit > 0 && len(rule.Extensions) > 0 {
			opts.Plugins = append(opts.Plugins, inlineLimitPlugin(name, rule))
		}
	}
	return nil
}

// inlineLimitPlugin loads files matched by rule as data URLs when they are
// smaller than the rule's limit and as separate files otherwise.
func inlineLimitPlugin(name string, rule chain.Rule) api.Plugin {
	exts := make([]string, 0, len(rule.Extensions))
	for _, ext := range rule.Extensions {
		exts = append(exts, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	filter := `\.(` + strings.Join(exts, "|") + `)$`

	return api.Plugin{
		Name: "inline-limit:" + name,
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: filter, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}

				contents := string(data)
				return api.OnLoadResult{
					Contents: &contents,
					Loader:   inlineLoader(int64(len(data)), rule.InlineLimit),
				}, nil
			})
		},
	}
}

func inlineLoader(size, limit int64) api.Loader {
	if size < limit {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
