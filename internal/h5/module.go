package h5

import (
	"github.com/wolfeidau/h5runner/internal/chain"
)

const (
	DefaultImageInlineLimit int64 = 2048
	DefaultFontInlineLimit  int64 = 10240
	DefaultMediaInlineLimit int64 = 10240
)

var (
	scriptExtensions = []string{".js", ".jsx", ".mjs", ".ts", ".tsx"}
	imageExtensions  = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg", ".ico"}
	fontExtensions   = []string{".woff", ".woff2", ".eot", ".ttf", ".otf"}
	mediaExtensions  = []string{".mp4", ".webm", ".ogg", ".mp3", ".wav", ".flac", ".aac"}
)

// WebpackModule lists the module rules of the H5 target.
type WebpackModule struct {
	combination *Combination
}

func NewWebpackModule(c *Combination) *WebpackModule {
	return &WebpackModule{combination: c}
}

func (m *WebpackModule) GetModules() chain.Module {
	cfg := m.combination.Config
	sourceMap := m.combination.EnableSourceMap

	return chain.Module{
		Rules: map[string]chain.Rule{
			"script": {
				Extensions: scriptExtensions,
				SourceMap:  sourceMap,
			},
			"style": {
				Extensions: []string{".css"},
				Loader:     chain.LoaderCSS,
				SourceMap:  sourceMap,
			},
			"image": {
				Extensions:  imageExtensions,
				Loader:      chain.LoaderFile,
				InlineLimit: cfg.ImageURLLoaderOption.LimitOr(DefaultImageInlineLimit),
			},
			"font": {
				Extensions:  fontExtensions,
				Loader:      chain.LoaderFile,
				InlineLimit: cfg.FontURLLoaderOption.LimitOr(DefaultFontInlineLimit),
			},
			"media": {
				Extensions:  mediaExtensions,
				Loader:      chain.LoaderFile,
				InlineLimit: cfg.MediaURLLoaderOption.LimitOr(DefaultMediaInlineLimit),
			},
			"json": {
				Extensions: []string{".json"},
				Loader:     chain.LoaderJSON,
			},
			"text": {
				Extensions: []string{".txt"},
				Loader:     chain.LoaderText,
			},
		},
	}
}
