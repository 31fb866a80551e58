// Package chain holds the assembled bundler configuration.
//
// A Config starts out seeded by a base configuration and grows through calls
// to Merge, each of which layers a Fragment over what is already there.
package chain

import (
	"encoding/json"
	"fmt"
	"maps"

	"dario.cat/mergo"
	"github.com/evanw/esbuild/pkg/api"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Devtool is the source-map style. The empty value disables source maps and
// serialises as false.
type Devtool string

const DevtoolNone Devtool = ""

func (d Devtool) Enabled() bool {
	return d != DevtoolNone
}

func (d Devtool) MarshalJSON() ([]byte, error) {
	if !d.Enabled() {
		return []byte("false"), nil
	}
	return json.Marshal(string(d))
}

func (d Devtool) MarshalYAML() (any, error) {
	if !d.Enabled() {
		return false, nil
	}
	return string(d), nil
}

type Output struct {
	Path                string `yaml:"path" json:"path,omitempty" toml:"path"`
	Filename            string `yaml:"filename" json:"filename,omitempty" toml:"filename"`
	ChunkFilename       string `yaml:"chunkFilename" json:"chunkFilename,omitempty" toml:"chunkFilename"`
	PublicPath          string `yaml:"publicPath" json:"publicPath,omitempty" toml:"publicPath"`
	AssetModuleFilename string `yaml:"assetModuleFilename" json:"assetModuleFilename,omitempty" toml:"assetModuleFilename"`
	// Clean empties the output directory before building.
	Clean bool `yaml:"clean" json:"clean,omitempty" toml:"clean"`
}

// Override returns o with every non-empty field of custom applied over it.
func (o Output) Override(custom Output) (Output, error) {
	if err := mergo.Merge(&o, custom, mergo.WithOverride); err != nil {
		return Output{}, fmt.Errorf("failed to apply output overrides: %w", err)
	}
	return o, nil
}

type Resolve struct {
	Alias      map[string]string `yaml:"alias" json:"alias,omitempty"`
	Extensions []string          `yaml:"extensions" json:"extensions,omitempty"`
	MainFields []string          `yaml:"mainFields" json:"mainFields,omitempty"`
}

// Loader names how the bundler treats files matched by a rule.
type Loader string

const (
	LoaderJS      Loader = "js"
	LoaderJSX     Loader = "jsx"
	LoaderTS      Loader = "ts"
	LoaderTSX     Loader = "tsx"
	LoaderCSS     Loader = "css"
	LoaderJSON    Loader = "json"
	LoaderText    Loader = "text"
	LoaderFile    Loader = "file"
	LoaderDataURL Loader = "dataurl"
)

// Rule maps file extensions to a loader. An empty loader keeps the
// bundler's default for each extension.
type Rule struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	Loader     Loader   `yaml:"loader" json:"loader"`
	// InlineLimit inlines matched files smaller than this many bytes as data URLs.
	InlineLimit int64 `yaml:"inlineLimit,omitempty" json:"inlineLimit,omitempty"`
	SourceMap   bool  `yaml:"sourceMap,omitempty" json:"sourceMap,omitempty"`
}

type Module struct {
	Rules map[string]Rule `yaml:"rules" json:"rules"`
}

// Plugin adjusts the bundler options of a build.
type Plugin interface {
	Apply(opts *api.BuildOptions) error
}

type Optimization struct {
	Minimizer map[string]Plugin `yaml:"minimizer" json:"minimizer"`
}

// Config is the assembled bundler configuration.
type Config struct {
	Context      string            `yaml:"context" json:"context"`
	Target       string            `yaml:"target" json:"target"`
	Entry        map[string]string `yaml:"entry" json:"entry"`
	Output       Output            `yaml:"output" json:"output"`
	Mode         Mode              `yaml:"mode" json:"mode"`
	Devtool      Devtool           `yaml:"devtool" json:"devtool"`
	Resolve      Resolve           `yaml:"resolve" json:"resolve"`
	Plugins      map[string]Plugin `yaml:"plugin" json:"plugin"`
	Module       Module            `yaml:"module" json:"module"`
	Optimization Optimization      `yaml:"optimization" json:"optimization"`
}

func New() *Config {
	return &Config{
		Entry:        map[string]string{},
		Resolve:      Resolve{Alias: map[string]string{}},
		Plugins:      map[string]Plugin{},
		Module:       Module{Rules: map[string]Rule{}},
		Optimization: Optimization{Minimizer: map[string]Plugin{}},
	}
}

// Fragment is a partial configuration layered over a Config by Merge.
// Nil and empty fields leave the corresponding section untouched.
type Fragment struct {
	Context      string
	Target       string
	Entry        map[string]string
	Output       *Output
	Mode         Mode
	Devtool      *Devtool
	Resolve      *Resolve
	Plugins      map[string]Plugin
	Module       *Module
	Optimization *Optimization
}

// Merge layers f over c. Named maps (entry, alias, plugins, rules, minimizers)
// are merged per key with f winning; output fields set in f replace those in
// c; resolve lists in f replace those in c.
func (c *Config) Merge(f Fragment) error {
	if f.Context != "" {
		c.Context = f.Context
	}
	if f.Target != "" {
		c.Target = f.Target
	}
	if f.Mode != "" {
		c.Mode = f.Mode
	}
	if f.Devtool != nil {
		c.Devtool = *f.Devtool
	}

	c.Entry = mergeNamed(c.Entry, f.Entry)
	c.Plugins = mergeNamed(c.Plugins, f.Plugins)

	if f.Output != nil {
		out, err := c.Output.Override(*f.Output)
		if err != nil {
			return err
		}
		c.Output = out
	}

	if f.Resolve != nil {
		c.Resolve.Alias = mergeNamed(c.Resolve.Alias, f.Resolve.Alias)
		if f.Resolve.Extensions != nil {
			c.Resolve.Extensions = f.Resolve.Extensions
		}
		if f.Resolve.MainFields != nil {
			c.Resolve.MainFields = f.Resolve.MainFields
		}
	}

	if f.Module != nil {
		c.Module.Rules = mergeNamed(c.Module.Rules, f.Module.Rules)
	}

	if f.Optimization != nil {
		c.Optimization.Minimizer = mergeNamed(c.Optimization.Minimizer, f.Optimization.Minimizer)
	}

	return nil
}

func mergeNamed[V any](dst, src map[string]V) map[string]V {
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
