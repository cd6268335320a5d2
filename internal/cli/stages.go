package cli

import (
	"github.com/spf13/cobra"
)

func newStagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Inspect the stages of a feis",
	}
	cmd.AddCommand(newStagesListCmd(app))
	cmd.AddCommand(newStagesRmCmd(app))
	cmd.AddCommand(newRostersCmd(app))
	return cmd
}

func newStagesRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <stage-id>",
		Short: "Remove a stage (its competitions become unscheduled)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().DeleteStage(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
}

func newStagesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stages in board order",
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}
			snap, err := app.client().Schedule(cmd.Context(), feisID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, snap.Stages)
		},
	}
}

func newRostersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rosters",
		Short: "List adjudicators and panels available for coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			adjs, err := app.client().Adjudicators(cmd.Context())
			if err != nil {
				return err
			}
			panels, err := app.client().Panels(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"adjudicators": adjs,
				"panels":       panels,
			})
		},
	}
}
