package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/h5runner/internal/assets"
	"github.com/wolfeidau/h5runner/internal/logger"
)

type BuildCmd struct {
	ProjectFlags `embed:""`

	Metafile string `help:"write the esbuild metafile to this path in the output directory, empty to skip" default:"meta.json" env:"H5RUNNER_METAFILE"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting build")

	defer setupTelemetry(ctx, globals)()

	combination, err := c.assemble(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to assemble config: %w", err)
	}

	pipeline := assets.New(combination.Chain, assets.Config{MetafilePath: c.Metafile})
	if err := pipeline.Build(ctx); err != nil {
		return err
	}

	meta, err := pipeline.Metadata()
	if err != nil {
		return err
	}

	outDir := outputDir(combination)
	var total int64
	for _, file := range meta.Files(combination.Chain.Context, outDir) {
		total += file.Bytes
		log.Info().Str("file", file.URLPath).Int64("bytes", file.Bytes).Msg("Wrote output")
	}

	log.Info().Str("outdir", outDir).Int64("bytes", total).Msg("Build finished")
	return nil
}
