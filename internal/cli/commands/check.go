package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/depcheck/internal/checker"
	"github.com/leapstack-labs/depcheck/internal/cli/config"
	"github.com/leapstack-labs/depcheck/internal/cli/output"
	"github.com/leapstack-labs/depcheck/pkg/manifest"
)

// ErrOutOfDate is returned by check when a manifest needs changes and
// --write was not given.
var ErrOutOfDate = errors.New("manifests are out of date")

// DefaultManifest is checked when no path is given.
const DefaultManifest = "package.json"

// CheckOutput is the JSON output for the check command.
type CheckOutput struct {
	Results []*checker.Result `json:"results"`
	Summary CheckSummary      `json:"summary"`
}

// CheckSummary counts check results.
type CheckSummary struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [package.json...]",
		Short: "Check manifests against the compatibility profiles",
		Long: `Check that each package.json declares the dependency versions the
compatibility profiles require for its capabilities and host versions.

Package settings come from the "depcheck" field of package.json:

  "depcheck": {
    "kind": "library",
    "capabilities": ["core-ios", "react"],
    "hostVersion": "^0.63 || ^0.64",
    "devHostVersion": "0.64"
  }

Flags override those settings for every checked manifest. Without --write the
command prints a diff and fails when any manifest is out of date.`,
		Example: `  # Check the package in the current directory
  depcheck check

  # Fix every package of a workspace
  depcheck check --write packages/*/package.json

  # Check an app that has no depcheck field yet
  depcheck check --kind app --capabilities core-ios,react --host-version 0.64`,
		RunE: runCheck,
	}

	addCheckFlags(cmd)
	cmd.Flags().BoolP("write", "w", false, "Write updated manifests back to disk")
	cmd.Flags().Int("concurrency", 0, "Number of manifests checked in parallel")

	return cmd
}

// addCheckFlags registers the per-package override flags shared by check and
// watch.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "Package kind (app|library)")
	cmd.Flags().StringSlice("capabilities", nil, "Required capabilities (comma separated)")
	cmd.Flags().String("host-version", "", "Supported host versions, e.g. \"^0.63 || ^0.64\"")
	cmd.Flags().String("dev-host-version", "", "Host versions used for local development")

	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, 0, len(manifest.Kinds()))
		for _, k := range manifest.Kinds() {
			kinds = append(kinds, string(k))
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	results, err := newChecker(cc).CheckAll(cmd.Context(), manifestPaths(args))
	if err != nil {
		return err
	}

	summary := summarize(results)
	if err := renderCheckResults(cc.Renderer, results, summary); err != nil {
		return err
	}

	if outOfDate := summary.Changed - summary.Written; outOfDate > 0 {
		return fmt.Errorf("%w: %d of %d need changes (run with --write to update)", ErrOutOfDate, outOfDate, summary.Checked)
	}
	return nil
}

func manifestPaths(args []string) []string {
	if len(args) == 0 {
		return []string{DefaultManifest}
	}
	return args
}

func newChecker(cc *CommandContext) *checker.Checker {
	return checker.New(cc.Registry, checkerOptions(cc.Cfg), cc.Logger)
}

func checkerOptions(cfg *config.Config) checker.Options {
	return checker.Options{
		Write:          cfg.Check.Write,
		Kind:           manifest.Kind(cfg.Check.Kind),
		Capabilities:   cfg.Check.Capabilities,
		HostVersion:    cfg.Check.HostVersion,
		DevHostVersion: cfg.Check.DevHostVersion,
		RuntimeCutoff:  cfg.Cutoff(),
		Concurrency:    cfg.Concurrency,
	}
}

func summarize(results []*checker.Result) CheckSummary {
	var s CheckSummary
	for _, res := range results {
		switch {
		case res.Skipped:
			s.Skipped++
		default:
			s.Checked++
		}
		if res.Changed {
			s.Changed++
		}
		if res.Written {
			s.Written++
		}
	}
	return s
}

func renderCheckResults(r *output.Renderer, results []*checker.Result, summary CheckSummary) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(CheckOutput{Results: results, Summary: summary})
	}

	r.Header(1, fmt.Sprintf("Manifests (%d checked)", summary.Checked))
	for _, res := range results {
		status, detail := resultStatus(res)
		r.StatusLine(res.Path, status, detail)
		r.Diff(res.Diff)
	}
	r.Println("")

	switch {
	case summary.Changed == 0:
		r.Success("All manifests are up to date")
	case summary.Written == summary.Changed:
		r.Success(fmt.Sprintf("Updated %d manifest(s)", summary.Written))
	default:
		r.Muted(fmt.Sprintf("%d manifest(s) out of date", summary.Changed-summary.Written))
	}
	if summary.Skipped > 0 {
		r.Muted(fmt.Sprintf("%d manifest(s) skipped: no depcheck configuration", summary.Skipped))
	}
	return nil
}

func resultStatus(res *checker.Result) (status, detail string) {
	switch {
	case res.Skipped:
		return "skipped", "not configured"
	case res.Written:
		return "success", "updated"
	case res.Changed:
		return "failed", "out of date"
	default:
		return "success", "up to date"
	}
}
