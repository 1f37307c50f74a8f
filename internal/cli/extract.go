package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/observability"
	"github.com/matzehuels/shipyard/pkg/pipeline"
)

// extractOptions holds the extract flags. Zero values fall back to the config.
type extractOptions struct {
	db      string
	out     string
	root    int64
	strict  bool
	refresh bool
	noCache bool
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Write the ship manufacturing lookups from the SDE",
		Long: `Extract selects every type under the Ship market group, resolves everything
needed to build them (recursively, including the blueprints), and writes
type_ids.json, type_names.json and bp_ids.json to the output directory.`,
		Example: `  # Extract with the defaults (data/sde.sqlite -> data/)
  shipyard extract

  # Another snapshot, skipping the cache
  shipyard extract --db sde-2024.sqlite --out public/data --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.db, "db", "", "SDE SQLite file (default from config: data/sde.sqlite)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default from config: data)")
	cmd.Flags().Int64Var(&opts.root, "root", 0, "root market group id (default 4, Ship)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on a missing root, missing names or name collisions")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached extracts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

// runExtract runs the pipeline and writes the three files.
func (c *CLI) runExtract(ctx context.Context, opts extractOptions) error {
	cfg := c.cfg
	logger := loggerFromContext(ctx)

	dbPath := firstNonEmpty(opts.db, cfg.Database)
	outDir := firstNonEmpty(opts.out, cfg.Output)
	pipeOpts := pipeline.Options{
		RootGroup: opts.root,
		Strict:    opts.strict || cfg.Strict,
		Refresh:   opts.refresh,
	}
	if pipeOpts.RootGroup == 0 {
		pipeOpts.RootGroup = cfg.RootGroup
	}

	runner, store, err := c.newRunner(ctx, dbPath, opts.noCache)
	if err != nil {
		printError("Cannot open %s", dbPath)
		return err
	}
	defer store.Close()
	defer runner.Close()

	logger.Debug("extracting", "db", dbPath, "root", pipeOpts.RootGroup, "strict", pipeOpts.Strict)

	spinner := newSpinnerWithContext(ctx, "Selecting ships...")
	restore := watchStages(spinner)
	spinner.Start()
	prog := newProgress(logger)

	result, err := runner.Extract(ctx, pipeOpts)
	restore()
	if err != nil {
		spinner.StopWithError("Extract failed")
		return err
	}
	spinner.Stop()

	paths, err := export.Write(outDir, result.Export)
	if err != nil {
		printError("Cannot write %s", outDir)
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d types", len(result.Export.TypeIDs)))

	printSuccess("Extracted %s ship hulls", StyleNumber.Render(fmt.Sprint(result.Seeds)))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result)

	switch {
	case result.RootMissing:
		printWarning("Market group %d not found; the files are empty", pipeOpts.RootGroup)
	case result.Seeds == 0:
		printWarning("No ships under market group %d; the files are empty", pipeOpts.RootGroup)
	default:
		if n := len(result.Export.Unnamed); n > 0 {
			printWarning("%d types have no name", n)
		}
		if n := len(result.Export.Collisions); n > 0 {
			printWarning("%d names are shared by several types", n)
		}
		printNewline()
		printNextStep("Plan a build", appName+" plan Rifter")
	}
	return nil
}

// stageHooks narrates the pipeline stages on a spinner.
type stageHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
}

func (h *stageHooks) OnSelectComplete(_ context.Context, _ int64, seeds int, _ time.Duration, err error) {
	if err == nil {
		h.spinner.Update(fmt.Sprintf("Resolving dependencies of %d ships...", seeds))
	}
}

func (h *stageHooks) OnResolveComplete(_ context.Context, relevant int, _ time.Duration, err error) {
	if err == nil {
		h.spinner.Update(fmt.Sprintf("Looking up %d types...", relevant))
	}
}

// watchStages routes pipeline events to s until the returned func is called.
func watchStages(s *Spinner) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(&stageHooks{spinner: s})
	return func() { observability.SetPipelineHooks(prev) }
}
