package postgres

import (
	"fmt"
	"strings"
)

// WhereBuilder incrementally assembles a WHERE clause with numbered
// placeholders. Conditions combine with AND; the string helpers skip empty
// values so callers can pass filters through unconditionally.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// AddContains adds a case-insensitive substring match. Empty values are skipped.
func (w *WhereBuilder) AddContains(column, value string) {
	if value == "" {
		return
	}
	w.conditions = append(w.conditions, fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(column), w.argIndex))
	w.args = append(w.args, "%"+value+"%")
	w.argIndex++
}

// AddPrefix adds a prefix match. Empty values are skipped.
func (w *WhereBuilder) AddPrefix(column, value string) {
	if value == "" {
		return
	}
	w.conditions = append(w.conditions, fmt.Sprintf("%s LIKE $%d", quoteIdentifier(column), w.argIndex))
	w.args = append(w.args, value+"%")
	w.argIndex++
}

// AddCmp adds a comparison against a single value. op must be one of
// =, >=, <=, >, <.
func (w *WhereBuilder) AddCmp(column, op string, value interface{}) {
	w.conditions = append(w.conditions, fmt.Sprintf("%s %s $%d", quoteIdentifier(column), op, w.argIndex))
	w.args = append(w.args, value)
	w.argIndex++
}

// AddCondition adds a raw condition such as an EXISTS subquery.
// Placeholders inside cond must be numbered starting at NextArgIndex.
func (w *WhereBuilder) AddCondition(cond string, args ...interface{}) {
	w.conditions = append(w.conditions, cond)
	w.args = append(w.args, args...)
	w.argIndex += len(args)
}

// Build returns the assembled clause with a leading " WHERE ", or an empty
// string when no conditions were added.
func (w *WhereBuilder) Build() (string, []interface{}) {
	if len(w.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conditions, " AND "), w.args
}

// NextArgIndex returns the placeholder number the next argument will take.
// Use it to continue numbering into LIMIT/OFFSET.
func (w *WhereBuilder) NextArgIndex() int {
	return w.argIndex
}

// quoteIdentifier wraps a column name in double quotes, escaping embedded
// quotes, so a name can never break out of the identifier position.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
