package query

import "strings"

// Substitute replaces the positional tokens of a condition template:
// $1 with first and $2 with second.
func Substitute(template, first, second string) string {
	return strings.NewReplacer("$1", first, "$2", second).Replace(template)
}

// SubstituteScoped replaces only the $1 token of a table-scoped condition.
// Any $2 in the text is left as written.
func SubstituteScoped(template, ref string) string {
	return strings.ReplaceAll(template, "$1", ref)
}
