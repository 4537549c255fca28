package eventhub

import (
	"fmt"
	"strings"
)

type term struct {
	path  string
	value string
	// prefix matches values starting with value when the expression ends in *.
	prefix bool
}

// Expression is a conjunction of key=value terms over event paths.
type Expression struct {
	raw   string
	terms []term
}

// ParseExpression parses `key=value [and key=value ...]`. Values may be
// wrapped in double quotes and may end in * for a prefix match.
func ParseExpression(raw string) (Expression, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Expression{}, fmt.Errorf("empty subscription expression")
	}
	expr := Expression{raw: trimmed}
	for _, clause := range splitAnd(trimmed) {
		key, value, ok := strings.Cut(clause, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" {
			return Expression{}, fmt.Errorf("invalid clause %q in %q", clause, trimmed)
		}
		value = strings.Trim(value, `"`)
		t := term{path: key, value: value}
		if strings.HasSuffix(value, "*") {
			t.prefix = true
			t.value = strings.TrimSuffix(value, "*")
		}
		expr.terms = append(expr.terms, t)
	}
	return expr, nil
}

// MustParseExpression panics on invalid input; use for static expressions.
func MustParseExpression(raw string) Expression {
	expr, err := ParseExpression(raw)
	if err != nil {
		panic(err)
	}
	return expr
}

// Match reports whether every term matches the event.
func (x Expression) Match(ev Event) bool {
	if len(x.terms) == 0 {
		return false
	}
	for _, t := range x.terms {
		got := ev.String(t.path)
		if t.prefix {
			if !strings.HasPrefix(got, t.value) {
				return false
			}
			continue
		}
		if got != t.value {
			return false
		}
	}
	return true
}

func (x Expression) String() string {
	return x.raw
}

// Topic returns the literal topic term, if any.
func (x Expression) Topic() string {
	for _, t := range x.terms {
		if t.path == "topic" && !t.prefix {
			return t.value
		}
	}
	return ""
}

func splitAnd(raw string) []string {
	fields := strings.Fields(raw)
	var clauses []string
	var current []string
	for _, f := range fields {
		if strings.EqualFold(f, "and") {
			if len(current) > 0 {
				clauses = append(clauses, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		clauses = append(clauses, strings.Join(current, " "))
	}
	return clauses
}
