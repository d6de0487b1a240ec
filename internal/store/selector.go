package store

import "strings"

// Selector expressions use the store's formula syntax, e.g.
//
//	Filter(Turnos, IN([Fecha], {"03/15/24", "2024-03-15"}))

// Quote renders s as a string literal, doubling embedded quotes.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Column renders a column reference.
func Column(name string) string {
	return "[" + name + "]"
}

// Filter wraps a boolean expression into a table selector.
func Filter(table, expr string) string {
	return "Filter(" + table + ", " + expr + ")"
}

// Equals compares a column against a literal.
func Equals(column, value string) string {
	return Column(column) + " = " + Quote(value)
}

// In matches a column against a literal set.
func In(column string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return "IN(" + Column(column) + ", {" + strings.Join(quoted, ", ") + "})"
}

// NotBlank matches rows whose column has a value.
func NotBlank(column string) string {
	return "ISNOTBLANK(" + Column(column) + ")"
}

// LowerEquals compares a column case-insensitively.
func LowerEquals(column, value string) string {
	return "LOWER(" + Column(column) + ") = " + Quote(strings.ToLower(value))
}

// And joins expressions with AND. A single expression is returned as is.
func And(exprs ...string) string {
	return join("AND", exprs)
}

// Or joins expressions with OR. A single expression is returned as is.
func Or(exprs ...string) string {
	return join("OR", exprs)
}

func join(op string, exprs []string) string {
	nonEmpty := exprs[:0:0]
	for _, e := range exprs {
		if strings.TrimSpace(e) != "" {
			nonEmpty = append(nonEmpty, e)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	default:
		return op + "(" + strings.Join(nonEmpty, ", ") + ")"
	}
}
