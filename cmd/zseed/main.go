package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zarlcorp/core/pkg/zapp"
	"github.com/zarlcorp/zseed/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	app := zapp.New(zapp.WithName("zseed"))

	ctx, cancel := zapp.SignalContext(context.Background())

	code := cli.Execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("shutdown")
		code = 1
	}
	os.Exit(code)
}
