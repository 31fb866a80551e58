package h5

import (
	"github.com/wolfeidau/h5runner/internal/chain"
)

const DefaultTarget = "es2017"

var (
	defaultExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".json"}
	defaultMainFields = []string{"browser", "module", "main"}
)

// baseConfig seeds the chain with the settings every H5 build shares.
func baseConfig(appPath string) chain.Fragment {
	return chain.Fragment{
		Context: appPath,
		Target:  DefaultTarget,
		Resolve: &chain.Resolve{
			Extensions: append([]string(nil), defaultExtensions...),
			MainFields: append([]string(nil), defaultMainFields...),
		},
	}
}
