package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type InspectCmd struct {
	ProjectFlags `embed:""`

	Format string `help:"output format" enum:"json,yaml" default:"json" env:"H5RUNNER_FORMAT"`

	out io.Writer
}

func (c *InspectCmd) Run(ctx context.Context, globals *Globals) error {
	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	if globals.Debug {
		log = log.Level(zerolog.DebugLevel)
	}
	ctx = log.WithContext(ctx)

	combination, err := c.assemble(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to assemble config: %w", err)
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}

	switch c.Format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(combination.Chain); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(combination.Chain)
	}
}
