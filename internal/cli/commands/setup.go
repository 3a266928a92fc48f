package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapjoin/internal/cli/output"
	"github.com/leapstack-labs/leapjoin/internal/config"
	"github.com/leapstack-labs/leapjoin/internal/plan"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Store    adapter.Adapter
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext connected to the configured target.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutStore(cmd)

	store, err := adapter.Open(cmd.Context(), cc.Cfg.Target.AdapterConfig(), cc.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", cc.Cfg.Target.Type, err)
	}
	cc.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a connection.
// Useful for commands that don't need database access.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// BuildQuery loads the plan at path and builds it against the store.
func (cc *CommandContext) BuildQuery(ctx context.Context, path string) (*query.Query, error) {
	p, err := plan.Load(path)
	if err != nil {
		return nil, err
	}
	q, err := p.Build(ctx, cc.Store, query.WithLogger(cc.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build plan %s: %w", path, err)
	}
	return q, nil
}

// getConfig returns the loaded configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := config.Default()
	config.ApplyTargetDefaults(cfg.Target)
	return cfg
}
