// Package dialect provides the SQL dialect definitions used when rendering
// composed selects: placeholder style, identifier quoting and default schema.
package dialect

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/leapstack-labs/leapjoin/pkg/core"
)

// Dialect wraps the static dialect configuration with rendering helpers.
type Dialect struct {
	core.DialectConfig

	reservedWords map[string]struct{}
}

// New creates a Dialect from its static configuration.
func New(cfg core.DialectConfig) *Dialect {
	d := &Dialect{
		DialectConfig: cfg,
		reservedWords: make(map[string]struct{}, len(cfg.ReservedWords)),
	}
	for _, w := range cfg.ReservedWords {
		d.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return d
}

// Config returns the static dialect configuration.
func (d *Dialect) Config() *core.DialectConfig {
	return &d.DialectConfig
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// PlaceholderFormat returns the squirrel placeholder format matching the dialect.
func (d *Dialect) PlaceholderFormat() sq.PlaceholderFormat {
	if d.Placeholder == core.PlaceholderDollar {
		return sq.Dollar
	}
	return sq.Question
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it's a reserved word.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

// QuoteAliasIfNeeded quotes a result column alias unless it is a plain
// lowercase identifier. Unquoted aliases are case folded by some engines
// (postgres lowers them), so anything else keeps its case only when quoted.
func (d *Dialect) QuoteAliasIfNeeded(name string) string {
	if d.IsReservedWord(name) || !isPlainIdentifier(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// QualifyIfNeeded quotes each dotted part of a qualified name that is a reserved word.
func (d *Dialect) QualifyIfNeeded(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifierIfNeeded(p)
	}
	return strings.Join(parts, ".")
}
