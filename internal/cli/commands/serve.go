package commands

import (
	"strconv"

	"github.com/leapstack-labs/leapjoin/internal/plan"
	"github.com/leapstack-labs/leapjoin/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve <plan.yaml>",
		Short: "Serve a plan's records over HTTP",
		Long: `Start an HTTP server exposing the plan's records as JSON:

  GET /healthz          liveness
  GET /sql              composed statements
  GET /count            distinct root records
  GET /items            ?offset=&limit= window of root records
  GET /pages/{number}   ?size= numbered page

The server stops on interrupt.`,
		Example: `  leapjoin serve shop.yaml --database shop.db --port 9000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := plan.Load(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("port") {
				port = cc.Cfg.Server.Port
			}

			srv := server.NewServer(server.Config{
				Store:    cc.Store,
				Plan:     p,
				Port:     port,
				PageSize: cc.Cfg.PageSize,
				Logger:   cc.Logger,
			})
			cc.Renderer.Muted("Serving " + args[0] + " on http://localhost:" + strconv.Itoa(port))
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: server.port from config)")

	return cmd
}
