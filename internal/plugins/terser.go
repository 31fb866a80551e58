package plugins

import (
	"github.com/evanw/esbuild/pkg/api"

	"github.com/wolfeidau/h5runner/internal/merge"
	"github.com/wolfeidau/h5runner/internal/util"
)

// Terser minifies production output. Options use terser's option names;
// the ones esbuild has an equivalent for are honoured:
//
//	keep_fnames                 keep function and class names
//	mangle: false               keep identifiers
//	compress: false             skip syntax minification
//	compress.drop_console       drop console.* calls
//	compress.drop_debugger      drop debugger statements
//	output.beautify             keep whitespace
//	output.comments             keep legal comments inline when truthy
//	output.ascii_only           escape non-ASCII characters
//	output.keep_quoted_props    never mangle quoted property names
type Terser struct {
	Options map[string]any `json:"options" yaml:"options"`
}

func NewTerser(options map[string]any) *Terser {
	return &Terser{Options: options}
}

func (t *Terser) Apply(opts *api.BuildOptions) error {
	o := t.Options

	opts.MinifyWhitespace = !merge.Bool(o, false, "output", "beautify")
	opts.MinifyIdentifiers = merge.Bool(o, true, "mangle")
	opts.MinifySyntax = merge.Bool(o, true, "compress")
	opts.KeepNames = merge.Bool(o, false, "keep_fnames")

	opts.LegalComments = api.LegalCommentsNone
	if comments, ok := merge.Get(o, "output", "comments"); ok {
		switch v := comments.(type) {
		case bool:
			if v {
				opts.LegalComments = api.LegalCommentsInline
			}
		case string:
			if v != "" && v != "false" {
				opts.LegalComments = api.LegalCommentsInline
			}
		}
	}

	if merge.Bool(o, false, "compress", "drop_console") {
		opts.Drop |= api.DropConsole
	}
	if merge.Bool(o, false, "compress", "drop_debugger") {
		opts.Drop |= api.DropDebugger
	}

	if asciiOnly, ok := merge.Get(o, "output", "ascii_only"); ok {
		if b, isBool := asciiOnly.(bool); isBool {
			opts.Charset = util.Cond(b, api.CharsetASCII, api.CharsetUTF8)
		}
	}

	if merge.Bool(o, false, "output", "keep_quoted_props") {
		opts.MangleQuoted = api.MangleQuotedFalse
	}

	return nil
}
