package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"feisboard/internal/feisapi"
)

func newCoverageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Manage adjudicator and panel coverage blocks",
	}
	cmd.AddCommand(newCoverageAddCmd(app))
	cmd.AddCommand(newCoverageRmCmd(app))
	cmd.AddCommand(newCoverageListCmd(app))
	return cmd
}

func newCoverageAddCmd(app *App) *cobra.Command {
	var (
		stages      []string
		adjudicator string
		panel       string
		day         string
		start       string
		end         string
		note        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Assign an adjudicator or panel to one or more stages",
		Long: strings.TrimSpace(`
Create a coverage block per named stage. Passing --panel with several --stage
flags creates a merged panel assignment: the board draws it once, spanning
the stages, as long as the windows stay identical.
`),
		Example: strings.TrimSpace(`
# Single adjudicator on one stage
feisboard coverage add --stage st-1 --adjudicator adj-3 --day 2026-03-14 --start 09:00 --end 12:00

# Ping-pong panel across two stages
feisboard coverage add --stage st-1 --stage st-2 --panel pan-1 --day 2026-03-14 --start 13:00 --end 17:00
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(stages) == 0 {
				return errors.New("coverage add: at least one --stage is required")
			}
			if (adjudicator == "") == (panel == "") {
				return errors.New("coverage add: exactly one of --adjudicator or --panel is required")
			}
			if panel == "" && len(stages) > 1 {
				return errors.New("coverage add: a single adjudicator covers one stage; use --panel to span stages")
			}

			req := feisapi.CoverageRequest{
				Day:       day,
				StartTime: start,
				EndTime:   end,
				Note:      note,
			}
			if adjudicator != "" {
				req.AdjudicatorID = &adjudicator
			}
			if panel != "" {
				req.PanelID = &panel
			}

			created := []any{}
			for _, stageID := range stages {
				blk, err := app.client().AddCoverage(cmd.Context(), stageID, req)
				if err != nil {
					return err
				}
				created = append(created, blk)
			}
			return writeOut(cmd, app, map[string]any{"created": created})
		},
	}

	cmd.Flags().StringArrayVar(&stages, "stage", nil, "Stage id (repeatable for panels)")
	cmd.Flags().StringVar(&adjudicator, "adjudicator", "", "Adjudicator id")
	cmd.Flags().StringVar(&panel, "panel", "", "Panel id")
	cmd.Flags().StringVar(&day, "day", "", "Day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&start, "start", "", "Window start (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "Window end (HH:MM)")
	cmd.Flags().StringVar(&note, "note", "", "Optional note (markdown)")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newCoverageRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <coverage-id>",
		Short: "Delete one coverage block",
		Long: strings.TrimSpace(`
Delete one stored coverage block by id. For a merged panel this detaches only
the named stage's block; the assignment keeps covering the remaining stages.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client().DeleteCoverage(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
}

func newCoverageListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List coverage blocks for the selected feis",
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}
			snap, err := app.client().Schedule(cmd.Context(), feisID)
			if err != nil {
				return err
			}
			type row struct {
				ID            string  `json:"id"`
				Stage         string  `json:"stage"`
				Day           string  `json:"day"`
				Start         string  `json:"start"`
				End           string  `json:"end"`
				AdjudicatorID *string `json:"adjudicatorId,omitempty"`
				PanelID       *string `json:"panelId,omitempty"`
				Note          string  `json:"note,omitempty"`
			}
			rows := []row{}
			for _, st := range snap.Stages {
				for _, b := range st.CoverageBlocks {
					rows = append(rows, row{
						ID:            b.ID,
						Stage:         st.Name,
						Day:           b.Day,
						Start:         b.Start,
						End:           b.End,
						AdjudicatorID: b.AdjudicatorID,
						PanelID:       b.PanelID,
						Note:          b.Note,
					})
				}
			}
			return writeOut(cmd, app, rows)
		},
	}
}
