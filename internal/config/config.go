// Package config describes the user-facing H5 build configuration and loads
// it from YAML, JSON or TOML files.
package config

import (
	"github.com/wolfeidau/h5runner/internal/chain"
)

const (
	DefaultSourceRoot      = "src"
	DefaultOutputRoot      = "dist"
	DefaultStaticDirectory = "static"
)

// Env is the build environment, the equivalent of NODE_ENV.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
	EnvTest        Env = "test"
)

// LookupEnv resolves the build environment from NODE_ENV using getenv.
// An unset variable resolves to production.
func LookupEnv(getenv func(string) string) Env {
	if v := getenv("NODE_ENV"); v != "" {
		return Env(v)
	}
	return EnvProduction
}

func (e Env) IsProduction() bool {
	return e == EnvProduction
}

// H5BuildConfig is the partial configuration for the H5 (web) target.
// Every field is optional.
type H5BuildConfig struct {
	Entry           map[string]string `yaml:"entry" json:"entry,omitempty" toml:"entry"`
	Output          chain.Output      `yaml:"output" json:"output" toml:"output"`
	Mode            chain.Mode        `yaml:"mode" json:"mode,omitempty" toml:"mode"`
	EnableSourceMap *bool             `yaml:"enableSourceMap" json:"enableSourceMap,omitempty" toml:"enableSourceMap"`
	SourceMapType   string            `yaml:"sourceMapType" json:"sourceMapType,omitempty" toml:"sourceMapType"`
	PublicPath      string            `yaml:"publicPath" json:"publicPath,omitempty" toml:"publicPath"`
	ChunkDirectory  string            `yaml:"chunkDirectory" json:"chunkDirectory,omitempty" toml:"chunkDirectory"`
	Alias           map[string]string `yaml:"alias" json:"alias,omitempty" toml:"alias"`
	Terser          *TerserConfig     `yaml:"terser" json:"terser,omitempty" toml:"terser"`

	SourceRoot      string            `yaml:"sourceRoot" json:"sourceRoot,omitempty" toml:"sourceRoot"`
	OutputRoot      string            `yaml:"outputRoot" json:"outputRoot,omitempty" toml:"outputRoot"`
	StaticDirectory string            `yaml:"staticDirectory" json:"staticDirectory,omitempty" toml:"staticDirectory"`
	DefineConstants map[string]string `yaml:"defineConstants" json:"defineConstants,omitempty" toml:"defineConstants"`
	Env             map[string]string `yaml:"env" json:"env,omitempty" toml:"env"`

	Router               RouterConfig     `yaml:"router" json:"router" toml:"router"`
	HTMLPluginOption     HTMLPluginOption `yaml:"htmlPluginOption" json:"htmlPluginOption" toml:"htmlPluginOption"`
	ImageURLLoaderOption URLLoaderOption  `yaml:"imageUrlLoaderOption" json:"imageUrlLoaderOption" toml:"imageUrlLoaderOption"`
	FontURLLoaderOption  URLLoaderOption  `yaml:"fontUrlLoaderOption" json:"fontUrlLoaderOption" toml:"fontUrlLoaderOption"`
	MediaURLLoaderOption URLLoaderOption  `yaml:"mediaUrlLoaderOption" json:"mediaUrlLoaderOption" toml:"mediaUrlLoaderOption"`

	Copy      CopyConfig      `yaml:"copy" json:"copy" toml:"copy"`
	Compress  CompressConfig  `yaml:"compress" json:"compress" toml:"compress"`
	Manifest  bool            `yaml:"manifest" json:"manifest,omitempty" toml:"manifest"`
	DevServer DevServerConfig `yaml:"devServer" json:"devServer" toml:"devServer"`
}

// Roots returns the source and output root directory names, relative to the
// application path, with defaults applied.
func (c H5BuildConfig) Roots() (sourceRoot, outputRoot string) {
	sourceRoot, outputRoot = c.SourceRoot, c.OutputRoot
	if sourceRoot == "" {
		sourceRoot = DefaultSourceRoot
	}
	if outputRoot == "" {
		outputRoot = DefaultOutputRoot
	}
	return sourceRoot, outputRoot
}

// TerserConfig holds the minifier settings. Config is merged over the
// built-in defaults.
type TerserConfig struct {
	Enable *bool          `yaml:"enable" json:"enable,omitempty" toml:"enable"`
	Config map[string]any `yaml:"config" json:"config,omitempty" toml:"config"`
}

// Enabled reports whether the minifier runs; it does unless explicitly disabled.
func (t *TerserConfig) Enabled() bool {
	return t == nil || t.Enable == nil || *t.Enable
}

// Options returns the user supplied minifier options, possibly nil.
func (t *TerserConfig) Options() map[string]any {
	if t == nil {
		return nil
	}
	return t.Config
}

type RouterMode string

const (
	RouterModeHash    RouterMode = "hash"
	RouterModeBrowser RouterMode = "browser"
)

type RouterConfig struct {
	Mode     RouterMode `yaml:"mode" json:"mode,omitempty" toml:"mode"`
	Basename string     `yaml:"basename" json:"basename,omitempty" toml:"basename"`
}

type HTMLPluginOption struct {
	Title    string `yaml:"title" json:"title,omitempty" toml:"title"`
	Filename string `yaml:"filename" json:"filename,omitempty" toml:"filename"`
	// Template is a Go html/template file, relative to the application path.
	Template string `yaml:"template" json:"template,omitempty" toml:"template"`
}

// URLLoaderOption controls inlining of small assets as data URLs.
type URLLoaderOption struct {
	// Limit in bytes; files smaller than this are inlined. Zero disables inlining.
	Limit *int64 `yaml:"limit" json:"limit,omitempty" toml:"limit"`
}

func (o URLLoaderOption) LimitOr(def int64) int64 {
	if o.Limit == nil {
		return def
	}
	return *o.Limit
}

type CopyPattern struct {
	// From is a file, directory or doublestar glob relative to the application path.
	From string `yaml:"from" json:"from" toml:"from"`
	// To is a path relative to the output directory.
	To string `yaml:"to" json:"to" toml:"to"`
}

type CopyConfig struct {
	Patterns []CopyPattern `yaml:"patterns" json:"patterns,omitempty" toml:"patterns"`
}

type CompressConfig struct {
	Enable     bool     `yaml:"enable" json:"enable,omitempty" toml:"enable"`
	Algorithms []string `yaml:"algorithms" json:"algorithms,omitempty" toml:"algorithms"`
	Threshold  int64    `yaml:"threshold" json:"threshold,omitempty" toml:"threshold"`
}

type DevServerConfig struct {
	Host        string   `yaml:"host" json:"host,omitempty" toml:"host"`
	Port        int      `yaml:"port" json:"port,omitempty" toml:"port"`
	CORSOrigins []string `yaml:"corsOrigins" json:"corsOrigins,omitempty" toml:"corsOrigins"`
}
