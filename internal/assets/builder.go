package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/h5runner/internal/chain"
	"github.com/wolfeidau/h5runner/internal/logger"
	"github.com/wolfeidau/h5runner/internal/telemetry"
)

var (
	ErrBuildFailed = errors.New("esbuild failed with errors")
	ErrNotBuilt    = errors.New("assets not built yet, call Build() first")
)

// Pipeline runs esbuild for an assembled configuration and keeps the
// metadata of the last successful build.
type Pipeline struct {
	chain    *chain.Config
	config   Config
	mu       sync.RWMutex
	metadata *BuildMetadata
}

func New(cfg *chain.Config, config Config) *Pipeline {
	return &Pipeline{
		chain:  cfg,
		config: config,
	}
}

// Options translates the pipeline's configuration into esbuild options.
func (p *Pipeline) Options() (api.BuildOptions, error) {
	return Translate(p.chain)
}

// Build runs esbuild once and loads the resulting metadata
func (p *Pipeline) Build(ctx context.Context) error {
	opts, err := p.Options()
	if err != nil {
		return err
	}

	if err := p.clean(); err != nil {
		return err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "assets.Build")
	defer span.End()

	log.Ctx(ctx).Info().
		Str("outdir", opts.Outdir).
		Int("entrypoints", len(opts.EntryPointsAdvanced)).
		Msg("Building assets")

	start := time.Now()
	result := api.Build(opts)

	err = p.handleResult(ctx, &result, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Watch builds and then rebuilds whenever an input changes, until ctx is
// cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	opts, err := p.Options()
	if err != nil {
		return err
	}

	if err := p.clean(); err != nil {
		return err
	}

	var start time.Time
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "h5runner-watch",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				start = time.Now()
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if err := p.handleResult(ctx, result, time.Since(start)); err != nil {
					log.Ctx(ctx).Warn().Err(err).Msg("Rebuild failed, waiting for changes")
				}
				return api.OnEndResult{}, nil
			})
		},
	})

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		for _, msg := range ctxErr.Errors {
			log.Ctx(ctx).Error().Str("error", msg.Text).Msg("Build context error")
		}
		return ErrBuildFailed
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch: %w", err)
	}

	log.Ctx(ctx).Info().Str("outdir", opts.Outdir).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

func (p *Pipeline) clean() error {
	outDir := OutDir(p.chain)
	if !p.chain.Output.Clean || outDir == "" {
		return nil
	}
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	return nil
}

func (p *Pipeline) handleResult(ctx context.Context, result *api.BuildResult, elapsed time.Duration) error {
	m := telemetry.GetMetrics()
	mode := metric.WithAttributes(attribute.String("mode", string(p.chain.Mode)))

	m.BuildsTotal.Add(ctx, 1, mode)
	m.BuildDuration.Record(ctx, float64(elapsed.Milliseconds()), mode)

	logger.LogBuildMessages(*log.Ctx(ctx), zerolog.WarnLevel, "Build warning", toBuildMessages(result.Warnings))
	m.BuildWarnings.Add(ctx, int64(len(result.Warnings)), mode)

	if len(result.Errors) > 0 {
		logger.LogBuildMessages(*log.Ctx(ctx), zerolog.ErrorLevel, "Build error", toBuildMessages(result.Errors))
		m.BuildErrorsTotal.Add(ctx, int64(len(result.Errors)), mode)
		return ErrBuildFailed
	}

	for _, file := range result.OutputFiles {
		log.Ctx(ctx).Debug().Str("file", file.Path).Msg("Built file")
	}

	metadata, err := ParseMetadata(result.Metafile)
	if err != nil {
		return err
	}

	for _, info := range metadata.Outputs {
		m.OutputFiles.Add(ctx, 1, mode)
		m.OutputBytes.Record(ctx, info.Bytes, mode)
	}

	if p.config.MetafilePath != "" {
		path := filepath.Join(OutDir(p.chain), p.config.MetafilePath)
		if err := os.WriteFile(path, []byte(result.Metafile), 0600); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.metadata = metadata
	p.mu.Unlock()

	log.Ctx(ctx).Info().
		Int("outputs", len(metadata.Outputs)).
		Dur("elapsed", elapsed).
		Msg("Build complete")

	return nil
}

// Metadata returns the metadata of the last successful build.
func (p *Pipeline) Metadata() (*BuildMetadata, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}
	return p.metadata, nil
}

func toBuildMessages(msgs []api.Message) []logger.BuildMessage {
	out := make([]logger.BuildMessage, 0, len(msgs))
	for _, msg := range msgs {
		bm := logger.BuildMessage{Text: msg.Text}
		if msg.Location != nil {
			bm.File = msg.Location.File
			bm.Line = msg.Location.Line
			bm.Column = msg.Location.Column
		}
		out = append(out, bm)
	}
	return out
}
