package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/depcheck/internal/cli/output"
	"github.com/leapstack-labs/depcheck/internal/devtools"
)

// devtoolsTimeout bounds the request to the dev server.
const devtoolsTimeout = 5 * time.Second

// NewDevtoolsCommand creates the devtools command.
func NewDevtoolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Open the debugger for an app connected to the dev server",
		Long: `Ask the running dev server which apps are connected to it and open the
debugger frontend of the first one. Chrome is tried first, then Edge, both
with a separate profile in node_modules/.cache/rnx-devtools under the project
root. An http(s) frontend falls back to the default browser.

The host defaults to this machine's hostname and the port to 8081.`,
		Example: `  # Open the debugger for the running app
  depcheck devtools

  # List the connected apps of a server on another port
  depcheck devtools --port 19000 --list`,
		RunE: runDevtools,
	}

	cmd.Flags().String("host", "", "Dev server host (default: this machine's hostname)")
	cmd.Flags().Int("port", 0, "Dev server port (default: 8081)")
	cmd.Flags().Bool("https", false, "Connect to the dev server over HTTPS")
	cmd.Flags().Bool("list", false, "List connected apps instead of opening the debugger")

	return cmd
}

func runDevtools(cmd *cobra.Command, _ []string) error {
	cc, err := newCommandContextWithoutRegistry(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer
	client := &http.Client{Timeout: devtoolsTimeout}

	if list, _ := cmd.Flags().GetBool("list"); list {
		pages, err := devtools.ListPages(cmd.Context(), client, devtools.ServerURL(cc.Cfg.Devtools))
		if err != nil {
			return err
		}
		return renderPages(r, pages)
	}

	page, err := devtools.OpenFirst(cmd.Context(), client, cc.Cfg.Devtools, cc.Cfg.ProjectRoot)
	if err != nil {
		return err
	}
	cc.Logger.Debug("opened devtools", "page", page.ID, "url", page.DevtoolsFrontendURL)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(page)
	}
	r.Success(fmt.Sprintf("Opened debugger for %s", page.Title))
	return nil
}

func renderPages(r *output.Renderer, pages []devtools.Page) error {
	if r.EffectiveMode() == output.ModeJSON {
		if pages == nil {
			pages = []devtools.Page{}
		}
		return r.JSON(pages)
	}

	r.Header(1, fmt.Sprintf("Connected apps (%d)", len(pages)))
	if len(pages) == 0 {
		r.Muted("No apps connected")
		return nil
	}
	for _, p := range pages {
		r.Println(output.FormatKeyValue(p.Title, p.DevtoolsFrontendURL))
	}
	return nil
}
