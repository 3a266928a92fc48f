package dialect

import "github.com/leapstack-labs/leapjoin/pkg/core"

// standardReserved lists words that break unquoted identifiers in every builtin dialect.
var standardReserved = []string{
	"select", "from", "where", "join", "on", "group", "order", "by",
	"limit", "offset", "table", "user", "index", "and", "or", "not",
}

var doubleQuote = core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`}

// SQLite is the SQLite dialect.
var SQLite = New(core.DialectConfig{
	Name:          "sqlite",
	Identifiers:   doubleQuote,
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	ReservedWords: standardReserved,
})

// DuckDB is the DuckDB dialect.
var DuckDB = New(core.DialectConfig{
	Name:          "duckdb",
	Identifiers:   doubleQuote,
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	ReservedWords: standardReserved,
})

// Postgres is the PostgreSQL dialect.
var Postgres = New(core.DialectConfig{
	Name:          "postgres",
	Identifiers:   doubleQuote,
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
	ReservedWords: append([]string{"analyse", "analyze", "limit", "returning"}, standardReserved...),
})

func init() {
	Register(SQLite)
	Register(DuckDB)
	Register(Postgres)
}
