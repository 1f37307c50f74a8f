package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/catalog"
	"github.com/matzehuels/shipyard/pkg/plan"
)

// searchOptions holds the search flags.
type searchOptions struct {
	data        string
	limit       int
	interactive bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find types by name",
		Long: `Search lists the types of an existing extract whose name contains the query,
ignoring case. Blueprints and reaction formulas are left out.

With --interactive, pick a result to print its build plan.`,
		Example: `  shipyard search rifter
  shipyard search "hull plate" -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "extract directory (default from config: data)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", catalog.DefaultLimit, "maximum number of results")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick a result and plan it")

	return cmd
}

func (c *CLI) runSearch(query string, opts searchOptions) error {
	e, err := c.loadExport(opts.data)
	if err != nil {
		return err
	}
	cat := catalog.New(e)

	entries, err := cat.Search(query, opts.limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No types match %q", query)
		return nil
	}

	if !opts.interactive {
		rows := make([][]string, len(entries))
		for i, entry := range entries {
			rows[i] = searchRow("", entry)[1:]
		}
		printTable([]string{"Name", "ID", "Recipe"}, rows, 1)
		printDetail("%d of %d names", len(entries), cat.Len())
		return nil
	}

	final, err := tea.NewProgram(NewSearchListModel(query, entries)).Run()
	if err != nil {
		return fmt.Errorf("search picker: %w", err)
	}
	picked := final.(SearchListModel).Selected
	if picked == nil {
		return nil
	}

	p, err := plan.Build(e.Blueprints, picked.ID, 1)
	if err != nil {
		return err
	}
	printPlan(p, cat, true)
	return nil
}
