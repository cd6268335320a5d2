package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"feisboard/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve a read-only HTML view of the board",
		Long: strings.TrimSpace(`
Serve a browser view of one feis board from a local HTTP server. The page is
server-rendered and read-only; open boards refresh live as the schedule
changes on the data service.
`),
		Example: strings.TrimSpace(`
# Serve the demo feis on localhost
feisboard web --feis feis-demo --addr 127.0.0.1:8544
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			feisID, err := requireFeis(app)
			if err != nil {
				return err
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return errors.New("web: missing --addr")
			}

			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "feisboard-web"})
			srv, err := web.NewServer(web.Config{
				Addr:     listenAddr,
				FeisID:   feisID,
				Timeline: app.cfg.TimelineConfig(),
			}, app.client(), logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return err
			}

			url := "http://" + ln.Addr().String() + "/"
			fmt.Fprintf(cmd.ErrOrStderr(), "feisboard web view at %s (feis=%s)\n", url, feisID)
			if open {
				if err := openURL(url); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %s\n", err)
				}
			}

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8544", "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the view in your default browser")
	return cmd
}

func openURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Run()
	default:
		return exec.Command("xdg-open", url).Run()
	}
}
