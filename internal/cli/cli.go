// Package cli implements zseed's command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/zarlcorp/zseed/internal/config"
	"github.com/zarlcorp/zseed/internal/logging"
)

// errFailed marks a command whose results were printed but did not all
// succeed. Its message is not printed again.
var errFailed = errors.New("generation failed")

// app is the state shared by every command of one invocation.
type app struct {
	version string

	verbose bool
	dryRun  bool
	seed    uint64

	cfg    config.Config
	log    zerolog.Logger
	closer io.Closer
	rng    *rand.Rand
	now    func() time.Time
}

func newApp(version string) *app {
	return &app{version: version, log: zerolog.Nop(), closer: nopCloser{}, now: time.Now}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "zseed",
		Short:         "zseed seeds WordPress and WooCommerce sites with test data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "generate against an in-memory sample site")
	root.PersistentFlags().Uint64Var(&a.seed, "seed", 0, "seed for reproducible output")

	root.AddCommand(
		a.generateCommand(),
		a.planCommand(),
		a.typesCommand(),
		a.personCommand(),
		a.sampleCommand(),
		a.historyCommand(),
		a.forgetCommand(),
		a.versionCommand(),
	)

	return root
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) int {
	a := newApp(version)
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	_ = a.closer.Close()

	if err == nil {
		return 0
	}
	if !errors.Is(err, errFailed) {
		fmt.Fprintf(stderr, "zseed: %v\n", err)
	}
	return 1
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	l, closer, err := logging.Init(a.verbose, cfg.LogDir())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.log, a.closer = l, closer

	seed := rand.Uint64()
	switch {
	case cmd.Flags().Changed("seed"):
		seed = a.seed
	case cfg.SeedSet:
		seed = cfg.Seed
	}
	a.seed = seed
	a.rng = rand.New(rand.NewPCG(seed, seed^0x5eed))

	a.log.Debug().
		Str("version", a.version).
		Uint64("seed", seed).
		Bool("dry_run", a.dryRun).
		Msg("zseed starting")

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
