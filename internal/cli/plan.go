package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/catalog"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/plan"
	"github.com/matzehuels/shipyard/pkg/sde"
)

// planOptions holds the plan flags.
type planOptions struct {
	data   string
	json   bool
	noTree bool
}

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan <name|id> [qty]",
		Short: "Expand a build into runs, raw materials and blueprints",
		Long: `Plan expands a build of qty units (default 1) from an existing extract.

Every manufactured input is broken down into recipe runs. Surplus from earlier
runs of the same type is reused before new runs are scheduled. Types without a
recipe are raw materials and are summed up at the end.`,
		Example: `  shipyard plan Rifter
  shipyard plan 587 10 --json`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeTypeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			qtyArg := ""
			if len(args) == 2 {
				qtyArg = args[1]
			}
			return c.runPlan(args[0], qtyArg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "extract directory (default from config: data)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the plan as JSON")
	cmd.Flags().BoolVar(&opts.noTree, "no-tree", false, "only print the totals")

	return cmd
}

// planJSON is the --json output, the same shape as /api/plan.
type planJSON struct {
	*plan.Plan
	Names map[sde.TypeID]string `json:"names"`
}

func (c *CLI) runPlan(target, qtyArg string, opts planOptions) error {
	e, err := c.loadExport(opts.data)
	if err != nil {
		return err
	}
	cat := catalog.New(e)

	p, err := buildPlan(cat, target, qtyArg)
	if err != nil {
		return err
	}

	if opts.json {
		return export.Encode(stdout, planJSON{Plan: p, Names: planNames(p, cat)})
	}
	printPlan(p, cat, !opts.noTree)
	return nil
}

// buildPlan resolves target in cat and expands qtyArg units of it.
func buildPlan(cat *catalog.Catalog, target, qtyArg string) (*plan.Plan, error) {
	entry, err := cat.Lookup(target)
	if err != nil {
		return nil, err
	}
	qty, err := errors.ParseQuantity(qtyArg)
	if err != nil {
		return nil, err
	}
	return plan.Build(cat.Export().Blueprints, entry.ID, qty)
}

// planNames maps every type and recipe in p to its display name.
func planNames(p *plan.Plan, cat *catalog.Catalog) map[sde.TypeID]string {
	names := make(map[sde.TypeID]string)
	p.Walk(func(n *plan.Node, _ int) {
		names[n.TypeID] = cat.Name(n.TypeID)
		if !n.Raw() {
			names[n.Recipe] = cat.Name(n.Recipe)
		}
	})
	return names
}

// printPlan prints the build tree followed by the totals.
func printPlan(p *plan.Plan, cat *catalog.Catalog, tree bool) {
	fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("%s × %d", cat.Name(p.Product), p.Quantity)))
	printNewline()

	if tree {
		printSection("Build")
		p.Walk(func(n *plan.Node, depth int) {
			fmt.Fprintln(stdout, strings.Repeat("  ", depth)+formatNode(n, cat))
		})
		printNewline()
	}

	printSection("Raw materials")
	rows := make([][]string, 0, len(p.Raw))
	for _, a := range p.RawAmounts() {
		rows = append(rows, []string{cat.Name(a.TypeID), fmt.Sprint(a.Quantity)})
	}
	printTable([]string{"Material", "Quantity"}, rows, 1)
	printNewline()

	printSection("Blueprints")
	for _, id := range p.Blueprints {
		printKeyValue(fmt.Sprint(id), cat.Name(id))
	}

	if leftover := p.LeftoverAmounts(); len(leftover) > 0 {
		printNewline()
		printSection("Leftover")
		for _, a := range leftover {
			printKeyValue(fmt.Sprint(a.Quantity), cat.Name(a.TypeID))
		}
	}
}

// formatNode renders one tree line: "Hull Plate ×3 · 3 runs of Hull Plate Blueprint".
func formatNode(n *plan.Node, cat *catalog.Catalog) string {
	line := StyleValue.Render(cat.Name(n.TypeID)) + " " + StyleNumber.Render(fmt.Sprintf("×%d", n.Requested))
	if n.Raw() {
		return line + StyleDim.Render(" · raw")
	}
	if n.FromStorage > 0 {
		line += StyleSuccess.Render(fmt.Sprintf(" · %d from storage", n.FromStorage))
	}
	if n.Runs > 0 {
		line += StyleDim.Render(fmt.Sprintf(" · %d runs of %s", n.Runs, cat.Name(n.Recipe)))
	}
	if n.Surplus > 0 {
		line += StyleDim.Render(fmt.Sprintf(" · +%d surplus", n.Surplus))
	}
	return line
}
