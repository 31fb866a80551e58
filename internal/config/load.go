package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound    = errors.New("no h5 config file found")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// FileNames lists the config files looked up in the application root, in order.
var FileNames = []string{
	"h5.config.yaml",
	"h5.config.yml",
	"h5.config.json",
	"h5.config.toml",
}

// Find returns the first config file present in appPath.
func Find(appPath string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(appPath, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrConfigNotFound, appPath)
}

// Load reads and decodes a config file, choosing the decoder from its extension.
func Load(path string) (*H5BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &H5BuildConfig{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDir finds and loads the config file in appPath. A missing file yields
// an empty configuration so every default applies.
func LoadDir(appPath string) (*H5BuildConfig, error) {
	path, err := Find(appPath)
	if errors.Is(err, ErrConfigNotFound) {
		return &H5BuildConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}
