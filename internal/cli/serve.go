package cli

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"feisboard/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var dbPath string
	var seed bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the schedule data service",
		Long: strings.TrimSpace(`
Run the HTTP data service that the board, web view and scriptable commands
talk to. State lives in a local SQLite database.
`),
		Example: strings.TrimSpace(`
# Serve on the default port with a demo feis
feisboard serve --seed

# Serve an existing database on a specific port
feisboard serve --addr :9000 --db ./feis.db
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
				ReportTimestamp: true,
				Prefix:          "feisboard",
			})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			path := strings.TrimSpace(dbPath)
			if path == "" {
				path = app.cfg.Storage.DBPath
			}
			if dir := filepath.Dir(path); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}

			store, err := server.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if seed {
				feis, err := server.SeedDemo(cmd.Context(), store)
				if err != nil {
					return err
				}
				logger.Info("seeded demo feis", "feis", feis.ID, "date", feis.Date)
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				listenAddr = app.cfg.Server.Addr
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return err
			}

			logger.Info("data service listening", "addr", ln.Addr().String(), "db", path)
			fmt.Fprintf(cmd.ErrOrStderr(), "feisboard API at http://%s/\n", ln.Addr().String())

			return http.Serve(ln, server.New(store, logger).Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default from config, :8543)")
	cmd.Flags().StringVar(&dbPath, "db", envOr("FEISBOARD_DB_PATH", ""), "SQLite database path (default from config)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed the demo feis (stable ids, safe to repeat)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	return cmd
}
