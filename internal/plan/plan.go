// Package plan reads query definitions from YAML files and builds them into
// join-tree queries.
//
//	root:  {table: orders, primary_key: [id], columns: [id, total, {buyer: customer}]}
//	joins:
//	  - {table: items, primary_key: [id], related: orders, on: "$1.order_id = $2.id", type: left, columns: [sku]}
//	where:
//	  - "orders.total > 0"
//	  - {eq: {"orders.status": paid}}
//	  - {for: items, condition: "$1.qty > 0"}
//	order_by: ["orders.id"]
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"gopkg.in/yaml.v3"
)

// Plan is a query definition: a root table, joined tables, conditions and ordering.
type Plan struct {
	Root    TableSpec   `yaml:"root"`
	Joins   []JoinSpec  `yaml:"joins"`
	Where   []Condition `yaml:"where"`
	OrderBy []string    `yaml:"order_by"`
}

// TableSpec names a table and the columns selected from it. When PrimaryKey
// is empty it is read from the backing store's table metadata.
type TableSpec struct {
	Table      string   `yaml:"table"`
	Schema     string   `yaml:"schema"`
	Alias      string   `yaml:"alias"`
	PrimaryKey []string `yaml:"primary_key"`
	Columns    Columns  `yaml:"columns"`
}

// Ref returns the name the table is referenced by in conditions.
func (s TableSpec) Ref() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.Schema != "" {
		return s.Schema + "." + s.Table
	}
	return s.Table
}

// JoinSpec attaches a table under Related (the root when empty). In On, $1
// refers to the joined table and $2 to Related.
type JoinSpec struct {
	TableSpec `yaml:",inline"`
	Related   string `yaml:"related"`
	On        string `yaml:"on"`
	Type      string `yaml:"type"`
}

// Columns is a column list. Each entry is either a column name or a
// one-entry mapping of output key to source column.
type Columns []query.Column

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Columns) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: columns must be a list", value.Line)
	}
	cols := make(Columns, 0, len(value.Content))
	for _, item := range value.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			cols = append(cols, query.Col(item.Value))
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: a renamed column must have exactly one key", item.Line)
			}
			cols = append(cols, query.Rename(item.Content[0].Value, item.Content[1].Value))
		default:
			return fmt.Errorf("line %d: column must be a name or {key: source}", item.Line)
		}
	}
	*c = cols
	return nil
}

// ConditionKind distinguishes the three forms a where entry can take.
type ConditionKind int

// Condition kinds.
const (
	RawCondition ConditionKind = iota
	EqCondition
	ScopedCondition
)

// Condition is one where entry: a raw SQL string (optionally with args), a
// column equality map, or templates scoped to a table alias.
type Condition struct {
	Kind      ConditionKind
	SQL       string
	Args      []any
	Eq        map[string]any
	For       string
	Templates []string
}

type conditionFields struct {
	SQL        string         `yaml:"sql"`
	Args       []any          `yaml:"args"`
	Eq         map[string]any `yaml:"eq"`
	For        string         `yaml:"for"`
	Condition  string         `yaml:"condition"`
	Conditions []string       `yaml:"conditions"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*c = Condition{Kind: RawCondition, SQL: value.Value}
		return nil
	}

	var f conditionFields
	if err := value.Decode(&f); err != nil {
		return err
	}

	switch {
	case f.For != "":
		templates := f.Conditions
		if f.Condition != "" {
			templates = append([]string{f.Condition}, templates...)
		}
		if len(templates) == 0 {
			return fmt.Errorf("line %d: condition for %s is empty", value.Line, f.For)
		}
		*c = Condition{Kind: ScopedCondition, For: f.For, Templates: templates}
	case f.Eq != nil:
		*c = Condition{Kind: EqCondition, Eq: f.Eq}
	case f.SQL != "":
		*c = Condition{Kind: RawCondition, SQL: f.SQL, Args: f.Args}
	default:
		return fmt.Errorf("line %d: condition must be a string, {sql}, {eq} or {for, condition}", value.Line)
	}
	return nil
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan. Unknown keys are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.NewValidationError("plan", "plan is empty")
		}
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the plan's structure. Alias resolution and column rules
// are left to the query, which reports them when the plan is built.
func (p *Plan) Validate() error {
	if p.Root.Table == "" {
		return core.NewValidationError("root.table", "root table is required")
	}
	for i, j := range p.Joins {
		field := fmt.Sprintf("joins[%d]", i)
		if j.Table == "" {
			return core.NewValidationError(field+".table", "join table is required")
		}
		if j.On == "" {
			return core.NewValidationError(field+".on", "join condition for %s is required", j.Ref())
		}
		if j.Type != "" {
			if _, err := query.ParseJoinType(j.Type); err != nil {
				return err
			}
		}
	}
	return nil
}
