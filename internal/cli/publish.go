package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/publish"
)

// publishTimeout bounds a whole publish, connection included.
const publishTimeout = 5 * time.Minute

// publishOptions holds the publish flags.
type publishOptions struct {
	data     string
	uri      string
	database string
	runID    string
}

// publishCommand creates the publish command.
func (c *CLI) publishCommand() *cobra.Command {
	var opts publishOptions

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upsert an extract into MongoDB",
		Long: `Publish writes an existing extract to MongoDB: one document per type in
"types", one per recipe in "blueprints", and a summary in "runs". Every
document carries the run id; documents left over from earlier runs are
removed once the new ones are written.`,
		Example: `  shipyard publish --uri mongodb://localhost:27017 --database eve`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPublish(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "extract directory (default from config: data)")
	cmd.Flags().StringVar(&opts.uri, "uri", "", "MongoDB connection string (default from config)")
	cmd.Flags().StringVar(&opts.database, "database", "", "MongoDB database (default from config: shipyard)")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run id to stamp (default: a new UUID)")

	return cmd
}

func (c *CLI) runPublish(ctx context.Context, opts publishOptions) error {
	logger := loggerFromContext(ctx)

	e, err := c.loadExport(opts.data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	uri := firstNonEmpty(opts.uri, c.cfg.Mongo.URI)
	database := firstNonEmpty(opts.database, c.cfg.Mongo.Database)
	runID := firstNonEmpty(opts.runID, publish.NewRunID())

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Publishing %d types to %s...", len(e.TypeIDs), database))
	spinner.Start()

	pub, err := publish.Mongo(ctx, uri, database)
	if err != nil {
		spinner.StopWithError("Cannot reach MongoDB")
		return err
	}
	defer pub.Close(context.Background())

	report, err := pub.Publish(ctx, e, runID)
	if err != nil {
		spinner.StopWithError("Publish failed")
		return err
	}
	spinner.Stop()

	logger.Debug("published", "run", report.RunID, "upserted", report.Upserted, "modified", report.Modified, "removed", report.Removed)
	printSuccess("Published run %s", StyleHighlight.Render(report.RunID))
	printKeyValue("Types", fmt.Sprint(report.Types))
	printKeyValue("Blueprints", fmt.Sprint(report.Blueprints))
	printKeyValue("Upserted", fmt.Sprint(report.Upserted))
	printKeyValue("Modified", fmt.Sprint(report.Modified))
	printKeyValue("Removed", fmt.Sprint(report.Removed))
	return nil
}
