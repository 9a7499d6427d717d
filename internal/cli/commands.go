package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zseed/internal/content"
	"github.com/zarlcorp/zseed/internal/generate"
	"github.com/zarlcorp/zseed/internal/plan"
	"github.com/zarlcorp/zseed/internal/store"
)

func (a *app) generateCommand() *cobra.Command {
	var asJSON, noImage, record bool

	cmd := &cobra.Command{
		Use:   "generate <type> [count]",
		Short: "Generate records of one type",
		Long: `Generate records of one type. Counts outside a type's limits fall back
to its default. Comment and review counts are per parent.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 0
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("count %q: want an integer", args[1])
				}
				count = n
			}

			o, err := a.orchestrator(noImage)
			if err != nil {
				return err
			}

			started := a.now()
			res := o.Generate(cmd.Context(), args[0], count)
			finished := a.now()

			if record && !res.Unknown {
				if err := a.record("", []generate.Result{res}, started, finished); err != nil {
					return err
				}
			}

			return a.report(cmd, asJSON, []generate.Result{res})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noImage, "no-image", false, "skip featured images")
	cmd.Flags().BoolVar(&record, "record", false, "save the run to the encrypted history")
	return cmd
}

func (a *app) planCommand() *cobra.Command {
	var asJSON, noImage, record bool

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Run the steps of a YAML plan in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open plan: %w", err)
			}
			p, err := plan.Load(f)
			f.Close()
			if err != nil {
				return err
			}

			o, err := a.orchestrator(noImage)
			if err != nil {
				return err
			}

			started := a.now()
			results := plan.Run(cmd.Context(), o, p)
			finished := a.now()

			if record {
				name := p.Name
				if name == "" {
					name = args[0]
				}
				if err := a.record(name, results, started, finished); err != nil {
					return err
				}
			}

			return a.report(cmd, asJSON, results)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	cmd.Flags().BoolVar(&noImage, "no-image", false, "skip featured images")
	cmd.Flags().BoolVar(&record, "record", false, "save the runs to the encrypted history")
	return cmd
}

// report prints results and turns any failure into errFailed.
func (a *app) report(cmd *cobra.Command, asJSON bool, results []generate.Result) error {
	w := cmd.OutOrStdout()
	if asJSON {
		var v any = results
		if len(results) == 1 && cmd.Name() == "generate" {
			v = results[0]
		}
		if err := printJSON(w, v); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(w, r)
		}
	}

	if plan.Failed(results) {
		return errFailed
	}
	return nil
}

func (a *app) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the generator types and their limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := generate.New(a.cfg.Generate(), generate.Deps{Rand: a.rng, Log: a.log})
			w := cmd.OutOrStdout()
			for _, typ := range o.Types() {
				l, _ := o.Limits(typ)
				fmt.Fprintf(w, "%s %s\n",
					accent.Render(fmt.Sprintf("%-10s", typ)),
					zstyle.MutedText.Render(fmt.Sprintf("ceiling %d, default %d", l.Ceiling, l.Default)))
			}
			return nil
		},
	}
}

func (a *app) personCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "person",
		Short: "Print one synthesized identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.people(a.corpus()).Person()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printPerson(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) sampleCommand() *cobra.Command {
	var words, sentences int

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a title and body from the configured content source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text := a.text(a.corpus(), a.remote())
			if words <= 0 {
				words = text.TitleWords()
			}

			title, err := text.Title(cmd.Context(), words)
			if err != nil {
				return err
			}
			body, err := text.Body(cmd.Context(), content.BodyParams{Sentences: sentences})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, accent.Render(title))
			fmt.Fprintln(w)
			fmt.Fprintln(w, body)
			return nil
		},
	}

	cmd.Flags().IntVar(&words, "words", 0, "title word count")
	cmd.Flags().IntVar(&sentences, "sentences", 0, "print a short passage of this many sentences instead of paragraphs")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zseed %s\n", a.version)
		},
	}
}

// record saves results to the history, one run per result.
func (a *app) record(planName string, results []generate.Result, started, finished time.Time) error {
	h, err := a.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	for _, res := range results {
		run := store.NewRun(res, a.dryRun, started, finished)
		run.Plan = planName
		saved, err := h.Record(run)
		if err != nil {
			return err
		}
		a.log.Debug().Str("id", saved.ID).Str("type", saved.Type).Msg("recorded run")
	}
	return nil
}
