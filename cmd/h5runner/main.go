package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/h5runner/cmd/h5runner/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build   commands.BuildCmd   `cmd:"" help:"Build the H5 target"`
		Dev     commands.DevCmd     `cmd:"" help:"Build in watch mode and serve the output"`
		Inspect commands.InspectCmd `cmd:"" help:"Print the assembled bundler configuration"`
		Debug   bool                `help:"Enable debug mode." env:"H5RUNNER_DEBUG"`
		Tracing bool                `help:"Enable OpenTelemetry tracing and metrics." env:"H5RUNNER_TRACING"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Tracing: cli.Tracing, Version: version})
	cmd.FatalIfErrorf(err)
}
