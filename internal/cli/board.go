package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive schedule board (TUI)",
		Example: strings.TrimSpace(`
# Board for one feis against the local data service
feisboard board --feis feis-demo

# Against a remote service
feisboard --server https://feis.example.org board --feis feis-24
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(app)
		},
	}
	return cmd
}
