// Package cli builds the feisboard command tree.
package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"feisboard/internal/config"
	"feisboard/internal/feisapi"
	"feisboard/internal/format"
	"feisboard/internal/tui"
)

type App struct {
	ConfigPath string
	ServerURL  string
	FeisID     string
	PrettyJSON bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "feisboard",
		Short:        "Feis schedule board: server, TUI and web view",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Run the data service with a demo feis
  feisboard serve --seed

  # Open the interactive board (default when a feis is selected)
  feisboard board --feis feis-demo

  # Scriptable commands
  feisboard schedule show --feis feis-demo
  feisboard schedule run --feis feis-demo --clear
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board when a feis is selected.
			if app.FeisID != "" && len(args) == 0 {
				return runBoard(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path := app.ConfigPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		app.cfg = cfg
		if app.ServerURL == "" {
			app.ServerURL = cfg.Server.BaseURL
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("FEISBOARD_CONFIG", ""), "Path to config file (default: ~/.config/feisboard/config.toml)")
	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("FEISBOARD_SERVER", ""), "Base URL of the feisboard data service")
	cmd.PersistentFlags().StringVar(&app.FeisID, "feis", envOr("FEISBOARD_FEIS", ""), "Feis id to operate on")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newBoardCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newScheduleCmd(app))
	cmd.AddCommand(newCoverageCmd(app))
	cmd.AddCommand(newStagesCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runBoard(app *App) error {
	feisID, err := requireFeis(app)
	if err != nil {
		return err
	}
	return tui.Run(app.client(), feisID, tui.Options{
		Timeline: app.cfg.TimelineConfig(),
		Instant:  app.cfg.InstantScheduleConfig(),
	})
}

func (a *App) client() *feisapi.Client {
	return feisapi.NewClient(a.ServerURL)
}

func requireFeis(app *App) (string, error) {
	id := strings.TrimSpace(app.FeisID)
	if id == "" {
		return "", errors.New("no feis selected; pass --feis <id> or set FEISBOARD_FEIS")
	}
	return id, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.PrettyJSON)
}
