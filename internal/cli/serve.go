package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/server"
)

// serveOptions holds the serve flags.
type serveOptions struct {
	addr string
	data string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an extract over HTTP",
		Long: `Serve loads an existing extract and serves it until interrupted:

  GET /data/{file}      type_ids.json, type_names.json, bp_ids.json
  GET /api/types/{id}   one type and its recipe (id or exact name)
  GET /api/search?q=    name search
  GET /api/plan/{id}    build plan, ?qty= defaults to 1
  GET /healthz          liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (default from config: :8080)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "extract directory (default from config: data)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	e, err := c.loadExport(opts.data)
	if err != nil {
		return err
	}
	srv, err := server.New(e, loggerFromContext(ctx))
	if err != nil {
		return err
	}

	addr := firstNonEmpty(opts.addr, c.cfg.Server.Addr)
	printSuccess("Serving %s types", StyleNumber.Render(fmt.Sprint(len(e.TypeIDs))))
	printDetail("Press Ctrl+C to stop")
	printKeyValue("URL", StyleLink.Render(serverURL(addr)))
	return srv.ListenAndServe(ctx, addr)
}

// serverURL turns a listen address into a browsable URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
