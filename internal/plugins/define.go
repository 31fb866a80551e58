package plugins

import (
	"maps"

	"github.com/evanw/esbuild/pkg/api"
)

// Define replaces global identifiers with constant expressions at build time.
// Values are JavaScript expressions, so strings must carry their own quotes.
type Define struct {
	Definitions map[string]string `json:"definitions" yaml:"definitions"`
}

func (d *Define) Apply(opts *api.BuildOptions) error {
	if opts.Define == nil {
		opts.Define = make(map[string]string, len(d.Definitions))
	}
	maps.Copy(opts.Define, d.Definitions)
	return nil
}
