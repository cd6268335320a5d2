package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"feisboard/internal/docs"
)

func newDocsCmd(app *App) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show built-in guides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Topics:")
				for _, t := range docs.Topics() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", t)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "\nRun: feisboard docs <topic>")
				return nil
			}

			topic := strings.ToLower(strings.TrimSpace(args[0]))
			md, ok := docs.Get(topic)
			if !ok {
				return fmt.Errorf("unknown topic %q (run `feisboard docs` for the list)", args[0])
			}
			if plain {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}

			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := r.Render(md)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw markdown without terminal styling")
	return cmd
}
