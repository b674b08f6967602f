package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/depcheck/internal/checker"
	"github.com/leapstack-labs/depcheck/pkg/profile"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [package.json...]",
		Short: "Re-check manifests whenever they change",
		Long: `Watch package.json files and re-run the check after every change.

When --profiles-dir is set, profile files in that directory are watched too and
the registry is reloaded before the next check. Combine with --write to keep
manifests aligned while editing them.`,
		Example: `  # Keep the current package aligned while editing
  depcheck watch --write

  # Watch two packages and wait half a second between edits
  depcheck watch --debounce 500ms packages/app/package.json packages/lib/package.json`,
		RunE: runWatch,
	}

	addCheckFlags(cmd)
	cmd.Flags().BoolP("write", "w", false, "Write updated manifests back to disk")
	cmd.Flags().Duration("debounce", 0, "Quiet period after a change before re-checking")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	paths := manifestPaths(args)
	opts := checker.WatchOptions{Debounce: cc.Cfg.Watch.Debounce}
	if cc.Cfg.ProfilesDir != "" {
		opts.Dirs = []string{cc.Cfg.ProfilesDir}
	}

	cc.Renderer.Muted(fmt.Sprintf("Watching %d manifest(s), press Ctrl+C to stop", len(paths)))

	return checker.Watch(cmd.Context(), cc.Logger, paths, opts, func(ctx context.Context) {
		watchRun(ctx, cc, paths)
	})
}

// watchRun runs one check pass. Errors are reported and watching continues.
func watchRun(ctx context.Context, cc *CommandContext, paths []string) {
	if cc.Cfg.ProfilesDir != "" {
		reg, err := profile.Load(cc.Cfg.ProfilesDir)
		if err != nil {
			cc.Renderer.Error(fmt.Sprintf("Failed to reload profiles: %v", err))
			return
		}
		cc.Registry = reg
	}

	start := time.Now()
	results, err := newChecker(cc).CheckAll(ctx, paths)
	if err != nil {
		if ctx.Err() == nil {
			cc.Renderer.Error(err.Error())
		}
		return
	}
	if err := renderCheckResults(cc.Renderer, results, summarize(results)); err != nil {
		cc.Logger.Warn("failed to render results", slog.String("error", err.Error()))
	}
	cc.Logger.Debug("check finished", slog.Duration("elapsed", time.Since(start)))
}
