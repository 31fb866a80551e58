package h5

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/config"
	"github.com/wolfeidau/h5runner/internal/plugins"
)

const (
	DefinePluginName      = "definePlugin"
	HTMLPluginName        = "htmlWebpackPlugin"
	CopyPluginName        = "copyWebpackPlugin"
	CompressionPluginName = "compressionPlugin"
	ManifestPluginName    = "manifestPlugin"

	DefaultRouterBasename = "/"
)

// WebpackPlugin lists the plugins of the H5 target.
type WebpackPlugin struct {
	combination *Combination
}

func NewWebpackPlugin(c *Combination) *WebpackPlugin {
	return &WebpackPlugin{combination: c}
}

func (p *WebpackPlugin) GetPlugins() map[string]chain.Plugin {
	cfg := p.combination.Config

	result := map[string]chain.Plugin{
		DefinePluginName: p.definePlugin(),
		HTMLPluginName:   p.htmlPlugin(),
	}

	if copyPlugin := p.copyPlugin(); copyPlugin != nil {
		result[CopyPluginName] = copyPlugin
	}

	if p.combination.Mode == chain.ModeProduction && cfg.Compress.Enable {
		algorithms := cfg.Compress.Algorithms
		if len(algorithms) == 0 {
			algorithms = []string{plugins.AlgorithmGzip}
		}
		threshold := cfg.Compress.Threshold
		if threshold == 0 {
			threshold = plugins.DefaultCompressionThreshold
		}
		result[CompressionPluginName] = &plugins.Compression{Algorithms: algorithms, Threshold: threshold}
	}

	if cfg.Manifest {
		result[ManifestPluginName] = &plugins.Manifest{Filename: plugins.DefaultManifestFilename}
	}

	return result
}

func (p *WebpackPlugin) definePlugin() *plugins.Define {
	cfg := p.combination.Config

	routerMode := cfg.Router.Mode
	if routerMode == "" {
		routerMode = config.RouterModeHash
	}
	basename := cfg.Router.Basename
	if basename == "" {
		basename = DefaultRouterBasename
	}

	definitions := map[string]string{
		"process.env.NODE_ENV":        jsString(string(p.combination.Mode)),
		"process.env.TARO_ENV":        jsString("h5"),
		"process.env.ROUTER_MODE":     jsString(string(routerMode)),
		"process.env.ROUTER_BASENAME": jsString(basename),
	}
	for name, value := range cfg.Env {
		definitions["process.env."+name] = value
	}
	for name, value := range cfg.DefineConstants {
		definitions[name] = value
	}

	return &plugins.Define{Definitions: definitions}
}

func (p *WebpackPlugin) htmlPlugin() *plugins.HTML {
	opt := p.combination.Config.HTMLPluginOption

	template := opt.Template
	if template != "" && !filepath.IsAbs(template) {
		template = filepath.Join(p.combination.AppPath, template)
	}

	return &plugins.HTML{
		Filename: opt.Filename,
		Title:    opt.Title,
		Template: template,
	}
}

// copyPlugin copies the static directory under the source root to the same
// name in the output, plus any configured patterns. It returns nil when there
// is nothing to copy.
func (p *WebpackPlugin) copyPlugin() *plugins.Copy {
	cfg := p.combination.Config

	staticDirectory := cfg.StaticDirectory
	if staticDirectory == "" {
		staticDirectory = config.DefaultStaticDirectory
	}

	var patterns []plugins.CopyPattern

	staticDir := filepath.Join(p.combination.SourceDir, staticDirectory)
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		patterns = append(patterns, plugins.CopyPattern{From: staticDir, To: staticDirectory})
	}

	for _, pattern := range cfg.Copy.Patterns {
		from := pattern.From
		if !filepath.IsAbs(from) {
			from = filepath.Join(p.combination.AppPath, from)
		}
		patterns = append(patterns, plugins.CopyPattern{From: from, To: pattern.To})
	}

	if len(patterns) == 0 {
		return nil
	}
	return &plugins.Copy{Patterns: patterns}
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
