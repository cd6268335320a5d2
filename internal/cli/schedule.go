package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"feisboard/internal/model"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and modify a feis schedule",
	}
	cmd.AddCommand(newScheduleShowCmd(app))
	cmd.AddCommand(newScheduleSaveCmd(app))
	cmd.AddCommand(newScheduleRunCmd(app))
	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current schedule snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}
			snap, err := app.client().Schedule(cmd.Context(), feisID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, snap)
		},
	}
}

func newScheduleSaveCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Bulk-save placements from a JSON file (or stdin)",
		Long: strings.TrimSpace(`
Replace the whole schedule with the given placements. The payload is a JSON
array of {"competitionId", "stageId", "scheduledTime"} objects; competitions
absent from the array become unscheduled. The server responds with its fresh
conflict list, which is printed as JSON.
`),
		Example: strings.TrimSpace(`
# Round-trip: edit a snapshot's placements with jq, save them back
feisboard schedule show --feis feis-demo \
  | jq '[.competitions[] | select(.stageId != null)
         | {competitionId: .id, stageId, scheduledTime}]' \
  | feisboard schedule save --feis feis-demo --file -
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}

			var raw []byte
			if file == "-" || file == "" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			var placements []model.Placement
			if err := json.Unmarshal(raw, &placements); err != nil {
				return fmt.Errorf("parsing placements: %w", err)
			}

			conflicts, err := app.client().BulkSave(cmd.Context(), feisID, placements)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"saved":     len(placements),
				"conflicts": conflicts,
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", "Placements JSON file ('-' for stdin)")
	return cmd
}

func newScheduleRunCmd(app *App) *cobra.Command {
	var (
		interactive bool
		clear       bool
		mergeUp     bool
		minSize     int
		maxSize     int
		lunchStart  string
		lunchEnd    string
		lunchMins   int
		feisStart   string
		feisEnd     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the instant scheduler",
		Long: strings.TrimSpace(`
Run the automatic scheduler server-side and print its report. The resulting
placements are persisted; fetch them with 'schedule show'. Pass --interactive
to adjust the knobs in a form instead of flags.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}

			// Config file values seed the knobs; explicit flags win.
			cfg := app.cfg.InstantScheduleConfig()
			flags := cmd.Flags()
			if flags.Changed("min-size") {
				cfg.MinCompSize = minSize
			}
			if flags.Changed("max-size") {
				cfg.MaxCompSize = maxSize
			}
			if flags.Changed("lunch-start") {
				cfg.LunchWindowStart = lunchStart
			}
			if flags.Changed("lunch-end") {
				cfg.LunchWindowEnd = lunchEnd
			}
			if flags.Changed("lunch-minutes") {
				cfg.LunchDurationMinutes = lunchMins
			}
			cfg.FeisStartTime = feisStart
			cfg.FeisEndTime = feisEnd
			cfg.AllowTwoYearMergeUp = mergeUp
			cfg.ClearExisting = clear

			if interactive {
				cfg, err = promptInstantConfig(cfg)
				if err != nil {
					return err
				}
			}
			if err := validateInstantConfig(cfg); err != nil {
				return err
			}

			report, err := app.client().RunInstantScheduler(cmd.Context(), feisID, cfg)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, report)
		},
	}

	defaults := model.DefaultInstantScheduleConfig()
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Adjust scheduler knobs in an interactive form")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear existing placements before scheduling")
	cmd.Flags().BoolVar(&mergeUp, "merge-up", false, "Allow merging small competitions up to two years apart")
	cmd.Flags().IntVar(&minSize, "min-size", defaults.MinCompSize, "Merge competitions smaller than this")
	cmd.Flags().IntVar(&maxSize, "max-size", defaults.MaxCompSize, "Split competitions larger than this")
	cmd.Flags().StringVar(&lunchStart, "lunch-start", defaults.LunchWindowStart, "Earliest lunch start (HH:MM)")
	cmd.Flags().StringVar(&lunchEnd, "lunch-end", defaults.LunchWindowEnd, "Latest lunch end (HH:MM)")
	cmd.Flags().IntVar(&lunchMins, "lunch-minutes", defaults.LunchDurationMinutes, "Lunch break length in minutes")
	cmd.Flags().StringVar(&feisStart, "start", defaults.FeisStartTime, "Feis start time (HH:MM)")
	cmd.Flags().StringVar(&feisEnd, "end", defaults.FeisEndTime, "Feis end time (HH:MM)")
	return cmd
}

// promptInstantConfig collects scheduler knobs in a form, seeded with the
// flag/default values.
func promptInstantConfig(cfg model.InstantScheduleConfig) (model.InstantScheduleConfig, error) {
	minSize := strconv.Itoa(cfg.MinCompSize)
	maxSize := strconv.Itoa(cfg.MaxCompSize)
	lunchMins := strconv.Itoa(cfg.LunchDurationMinutes)

	hhmm := func(s string) error {
		_, err := model.ParseHHMM(strings.TrimSpace(s))
		return err
	}
	number := func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative number")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Merge competitions smaller than").Value(&minSize).Validate(number),
			huh.NewInput().Title("Split competitions larger than").Value(&maxSize).Validate(number),
			huh.NewInput().Title("Lunch window start (HH:MM)").Value(&cfg.LunchWindowStart).Validate(hhmm),
			huh.NewInput().Title("Lunch window end (HH:MM)").Value(&cfg.LunchWindowEnd).Validate(hhmm),
			huh.NewInput().Title("Lunch minutes").Value(&lunchMins).Validate(number),
			huh.NewConfirm().Title("Allow merging up to two years apart?").Value(&cfg.AllowTwoYearMergeUp),
			huh.NewConfirm().Title("Clear existing placements first?").Value(&cfg.ClearExisting),
		),
	)
	if err := form.Run(); err != nil {
		return cfg, err
	}

	cfg.MinCompSize, _ = strconv.Atoi(strings.TrimSpace(minSize))
	cfg.MaxCompSize, _ = strconv.Atoi(strings.TrimSpace(maxSize))
	cfg.LunchDurationMinutes, _ = strconv.Atoi(strings.TrimSpace(lunchMins))
	return cfg, nil
}

func validateInstantConfig(cfg model.InstantScheduleConfig) error {
	if cfg.MinCompSize > cfg.MaxCompSize {
		return fmt.Errorf("min size %d exceeds max size %d", cfg.MinCompSize, cfg.MaxCompSize)
	}
	for _, f := range []struct{ name, v string }{
		{"lunch-start", cfg.LunchWindowStart},
		{"lunch-end", cfg.LunchWindowEnd},
		{"start", cfg.FeisStartTime},
		{"end", cfg.FeisEndTime},
	} {
		if f.v == "" {
			continue
		}
		if _, err := model.ParseHHMM(f.v); err != nil {
			return fmt.Errorf("--%s: %w", f.name, err)
		}
	}
	return nil
}
