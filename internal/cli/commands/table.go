package commands

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/leapstack-labs/leapjoin/internal/cli/output"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/table"
	"github.com/spf13/cobra"
)

type columnOutput struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

type describeOutput struct {
	Schema     string         `json:"schema,omitempty"`
	Name       string         `json:"name"`
	PrimaryKey []string       `json:"primary_key"`
	Columns    []columnOutput `json:"columns"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns and primary key of a table",
		Long: `Read the target's catalog for a table and print its columns. Plans that
omit primary_key resolve it the same way.`,
		Example: `  leapjoin describe orders --database shop.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			meta, err := cc.Store.GetTableMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(meta.Columns) == 0 {
				return &core.NotFoundError{Table: args[0]}
			}

			out := describeOutput{
				Schema:     meta.Schema,
				Name:       meta.Name,
				PrimaryKey: meta.PrimaryKey(),
			}
			if out.PrimaryKey == nil {
				out.PrimaryKey = []string{}
			}
			rows := make([][]any, 0, len(meta.Columns))
			for _, c := range meta.Columns {
				out.Columns = append(out.Columns, columnOutput{
					Name: c.Name, Type: c.Type, Nullable: c.Nullable, PrimaryKey: c.PrimaryKey,
				})
				rows = append(rows, []any{c.Name, c.Type, yesNo(c.Nullable), yesNo(c.PrimaryKey)})
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(out)
			}
			r.Header(2, meta.Name)
			r.Table([]string{"column", "type", "nullable", "pk"}, rows)
			return nil
		},
	}
}

// NewFindCommand creates the find command.
func NewFindCommand() *cobra.Command {
	var pk []string

	cmd := &cobra.Command{
		Use:   "find <table> <key>...",
		Short: "Look up one row by primary key",
		Long: `Look up a single row by its primary key values, given in key order.
The key columns come from --pk, or from the target's catalog when omitted.`,
		Example: `  leapjoin find orders 10 --database shop.db
  leapjoin find order_lines 10 2 --pk order_id,line`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			var order []string
			if len(pk) == 0 {
				meta, err := cc.Store.GetTableMetadata(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("failed to read metadata for %s: %w", name, err)
				}
				pk = meta.PrimaryKey()
				for _, c := range meta.Columns {
					order = append(order, c.Name)
				}
			}
			t, err := table.New(name, pk...)
			if err != nil {
				return err
			}

			key := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				key = append(key, parseKey(a))
			}
			row, err := t.Find(cmd.Context(), cc.Store, key...)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(row)
			}
			r.KeyValues(rowPairs(row, order))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&pk, "pk", nil, "Primary key columns (default: read from the catalog)")

	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <table> <file.csv>",
		Short: "Load a CSV file into a table",
		Long: `Create or replace a table from a CSV file with a header row. Supported by
duckdb and postgres targets.`,
		Example: `  leapjoin load customers customers.csv --adapter duckdb --database shop.duckdb`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			loader, ok := cc.Store.(adapter.CSVLoader)
			if !ok {
				return fmt.Errorf("%s targets cannot load CSV files", cc.Cfg.Target.Type)
			}
			if err := loader.LoadCSV(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]string{"table": args[0], "file": args[1]})
			}
			r.Success(fmt.Sprintf("Loaded %s into %s", args[1], args[0]))
			return nil
		},
	}
}

// parseKey turns an integer-looking argument into an int64 so it binds
// against numeric key columns.
func parseKey(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

// rowPairs lists a row's values in catalog order, falling back to sorted names.
func rowPairs(row core.Row, order []string) [][2]string {
	if len(order) == 0 {
		for k := range row {
			order = append(order, k)
		}
		slices.Sort(order)
	}
	pairs := make([][2]string, 0, len(row))
	for _, k := range order {
		v, ok := row[k]
		if !ok {
			continue
		}
		pairs = append(pairs, [2]string{k, output.FormatValue(v)})
	}
	return pairs
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
