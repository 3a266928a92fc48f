package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapjoin/internal/cli/output"
	"github.com/leapstack-labs/leapjoin/pkg/paginator"
	"github.com/spf13/cobra"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <plan.yaml>",
		Short: "Fetch the nested records of a plan",
		Long: `Compose the plan into a single select, run it against the target and
print the rows rebuilt as nested records: one entry per root record with
its joined records grouped underneath.`,
		Example: `  # Nested records as JSON
  leapjoin fetch orders.yaml --output json

  # Against a file database
  leapjoin fetch orders.yaml --database shop.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := cc.BuildQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			records, err := q.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Records(records)
		},
	}
}

type countOutput struct {
	Root  string `json:"root"`
	Total int64  `json:"total"`
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count <plan.yaml>",
		Short: "Count the distinct root records of a plan",
		Long: `Count the root records matched by the plan. Joined rows are not counted:
a root record with many children counts once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := cc.BuildQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			total, err := paginator.New(q).Count(cmd.Context())
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(countOutput{Root: q.Root().Ref(), Total: total})
			}
			r.KeyValues([][2]string{
				{"Root", q.Root().Ref()},
				{"Total", fmt.Sprint(total)},
			})
			return nil
		},
	}
}

// PageOptions holds options for the page command.
type PageOptions struct {
	Number int
	Size   int
}

// NewPageCommand creates the page command.
func NewPageCommand() *cobra.Command {
	opts := &PageOptions{}

	cmd := &cobra.Command{
		Use:   "page <plan.yaml>",
		Short: "Fetch one page of root records",
		Long: `Fetch one numbered page of root records, each with all of its joined
records. Pages are ordered by the root primary key and sized in root
records, not rows. A page number past the end returns the last page.`,
		Example: `  # Second page of ten customers
  leapjoin page customers.yaml --page 2 --size 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			size := opts.Size
			if !cmd.Flags().Changed("size") {
				size = cc.Cfg.PageSize
			}

			q, err := cc.BuildQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			page, err := paginator.New(q).Page(cmd.Context(), opts.Number, size)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(page)
			}
			r.Header(2, fmt.Sprintf("Page %d of %d", page.Number, max(page.Pages, 1)))
			if err := r.Records(page.Items); err != nil {
				return err
			}
			r.Muted(fmt.Sprintf("%d root records, %d per page", page.Total, page.Size))
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Number, "page", "p", 1, "Page number (1-based)")
	cmd.Flags().IntVarP(&opts.Size, "size", "s", 0, "Root records per page (default: page_size from config)")

	return cmd
}

type sqlOutput struct {
	Select string `json:"select"`
	Args   []any  `json:"args"`
	Count  string `json:"count"`
	Window string `json:"window"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "sql <plan.yaml>",
		Short: "Print the statements composed for a plan",
		Long: `Print the full select, the distinct root count and the first key window
composed for the plan, rendered for the target's dialect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if !cmd.Flags().Changed("size") {
				size = cc.Cfg.PageSize
			}

			q, err := cc.BuildQuery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			spec, err := q.Select()
			if err != nil {
				return err
			}

			var out sqlOutput
			if out.Select, out.Args, err = spec.ToSql(); err != nil {
				return err
			}
			if out.Count, _, err = spec.CountBuilder().ToSql(); err != nil {
				return err
			}
			if size <= 0 {
				return fmt.Errorf("size must be positive, got %d", size)
			}
			if out.Window, _, err = spec.WindowBuilder(0, uint64(size)).ToSql(); err != nil {
				return err
			}
			if out.Args == nil {
				out.Args = []any{}
			}

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(out)
			case output.ModeMarkdown:
				for _, s := range [][2]string{{"Select", out.Select}, {"Count", out.Count}, {"Key window", out.Window}} {
					r.Println(output.FormatHeader(2, s[0]))
					r.Println("")
					r.Println(output.FormatCodeBlock("sql", s[1]))
					r.Println("")
				}
				if len(out.Args) > 0 {
					r.Println(output.FormatKeyValue("Args", fmt.Sprint(out.Args)))
				}
			default:
				r.KeyValues([][2]string{
					{"select", out.Select},
					{"count", out.Count},
					{"window", out.Window},
				})
				if len(out.Args) > 0 {
					r.KeyValues([][2]string{{"args", fmt.Sprint(out.Args)}})
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 0, "Window size (default: page_size from config)")

	return cmd
}
