package finder

import (
	"strings"

	"github.com/melkeydev/value-finder/databases"
	"github.com/melkeydev/value-finder/types"
)

// BuildQuery renders the existence query for one table: the candidate
// columns are both projected and OR'ed in the predicate, grouped and ordered
// so at most one deterministic row comes back.
//
// Table and column names come from the schema catalog. The searched value is
// inlined as a literal rather than bound, with single quotes doubled, so the
// value must come from an operator, never from untrusted input.
func BuildQuery(d databases.Dialect, table string, candidates []types.ColumnMeta, value Value, exactMatch bool) string {
	op, literal := predicate(d, value, exactMatch)

	names := make([]string, len(candidates))
	conditions := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = d.QuoteIdentifier(c.Name)
		conditions[i] = names[i] + " " + op + " " + literal
	}

	projection := strings.Join(names, ", ")
	return d.SelectFirst(projection, d.QuoteIdentifier(table), strings.Join(conditions, " OR "), projection)
}

func predicate(d databases.Dialect, value Value, exactMatch bool) (string, string) {
	switch value.Kind() {
	case KindText:
		text := strings.ReplaceAll(value.String(), "'", "''")
		if exactMatch {
			return "=", "'" + text + "'"
		}
		return d.LikeOperator(), "'%" + text + "%'"
	default:
		return "=", value.String()
	}
}
