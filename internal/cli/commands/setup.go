// Package commands implements the depcheck subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/depcheck/internal/cli/config"
	"github.com/leapstack-labs/depcheck/internal/cli/output"
	"github.com/leapstack-labs/depcheck/pkg/profile"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// WithConfig returns ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer returns ctx carrying r.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *profile.Registry
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer set up by the
// root command and loads the profile registry.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc, err := newCommandContextWithoutRegistry(cmd)
	if err != nil {
		return nil, err
	}
	if err := cc.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}
	reg, err := profile.Load(cc.Cfg.ProfilesDir)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("loaded profiles",
		slog.Int("count", reg.Len()),
		slog.String("profiles_dir", cc.Cfg.ProfilesDir))
	cc.Registry = reg
	return cc, nil
}

func newCommandContextWithoutRegistry(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		// Command run on its own (tests): load config straight from its flags.
		var err error
		cfg, err = config.LoadConfig("", cmd.Flags())
		if err != nil {
			return nil, err
		}
	}

	r, ok := ctx.Value(rendererKey{}).(*output.Renderer)
	if !ok {
		mode, err := output.ParseMode(cfg.OutputFormat)
		if err != nil {
			return nil, err
		}
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: r,
	}, nil
}
