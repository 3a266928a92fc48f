package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leapjoin/internal/cli/output"
	"github.com/leapstack-labs/leapjoin/internal/fixtures"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/spf13/cobra"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Reset     bool
	WritePlan string
}

type seedOutput struct {
	Target  string `json:"target"`
	Version int64  `json:"version"`
	Plan    string `json:"plan,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create and fill the demo shop tables",
		Long: `Create the demo shop schema (customers, orders, items) in the target and
fill it with a small data set. Applying twice is a no-op.

Use --write-plan to also write a plan that queries the shop tables.`,
		Example: `  # Seed a file database and write the demo plan
  leapjoin seed --database shop.db --write-plan shop.yaml
  leapjoin fetch shop.yaml --database shop.db

  # Drop and recreate the demo tables
  leapjoin seed --database shop.db --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Roll the demo tables back before seeding")
	cmd.Flags().StringVar(&opts.WritePlan, "write-plan", "", "Write the demo plan to this path")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	targetType := cc.Cfg.Target.Type
	if !fixtures.Supported(targetType) {
		return fmt.Errorf("fixtures are not supported for %s targets", targetType)
	}
	provider, ok := cc.Store.(adapter.DBProvider)
	if !ok {
		return fmt.Errorf("%s adapter does not expose a database/sql connection", targetType)
	}
	db := provider.SQLDB()
	ctx := cmd.Context()

	if opts.Reset {
		cc.Logger.Debug("resetting fixtures", "target", targetType)
		if err := fixtures.Reset(ctx, db, targetType); err != nil {
			return err
		}
	}
	if err := fixtures.Apply(ctx, db, targetType); err != nil {
		return err
	}
	version, err := fixtures.Version(ctx, db, targetType)
	if err != nil {
		return err
	}

	if opts.WritePlan != "" {
		if err := os.WriteFile(opts.WritePlan, fixtures.ShopPlan(), 0o600); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(seedOutput{Target: targetType, Version: version, Plan: opts.WritePlan})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Seed"))
		r.Println("")
		r.Println(output.FormatKeyValue("Target", targetType))
		r.Println(output.FormatKeyValue("Version", fmt.Sprint(version)))
		if opts.WritePlan != "" {
			r.Println(output.FormatKeyValue("Plan", opts.WritePlan))
		}
	default:
		r.Success(fmt.Sprintf("Seeded %s target (version %d)", targetType, version))
		if opts.WritePlan != "" {
			r.Muted("Plan written to " + opts.WritePlan)
		}
	}
	return nil
}
