// Package evalcond evaluates a single infix comparison, built on top of the
// expression evaluator, with a truthiness fallback when no comparator is
// present.
package evalcond

import (
	"strings"

	"tracevm/internal/env"
	"tracevm/internal/evalexpr"
	"tracevm/internal/value"
)

// Eval evaluates a single condition expression against the live variable
// map. Recognized shapes, in match priority: `e % k == r`, `e % k != r` (the
// modulo is just ordinary left-hand-side arithmetic, so no special casing is
// needed beyond locating the comparator), then plain `a == b`, `!=`, `<=`,
// `>=`, `<`, `>`. Anything without a top-level comparator falls back to a
// truthiness test on the whole expression.
func Eval(cond string, vars env.Vars) bool {
	text := strings.TrimSpace(cond)
	op, split, width, ok := findComparator(text)
	if !ok {
		return evalexpr.Eval(text, vars).Truthy()
	}
	left := evalexpr.Eval(text[:split], vars)
	right := evalexpr.Eval(text[split+width:], vars)
	return compare(op, left, right)
}

// findComparator locates the first top-level (paren/bracket-depth zero)
// comparison operator, preferring two-character operators over their
// one-character prefixes (so "<=" is never split as "<" followed by "=").
func findComparator(text string) (op string, index, width int, ok bool) {
	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '(', '[':
			depth++
			continue
		case ')', ']':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		two := ""
		if i+1 < len(text) {
			two = text[i : i+2]
		}
		switch two {
		case "==", "!=", "<=", ">=":
			return two, i, 2, true
		}
		switch c {
		case '<', '>':
			return string(c), i, 1, true
		}
	}
	return "", 0, 0, false
}

func compare(op string, a, b value.Value) bool {
	switch op {
	case "==":
		return value.Equal(a, b)
	case "!=":
		return !value.Equal(a, b)
	case "<":
		return a.AsFloat() < b.AsFloat()
	case ">":
		return a.AsFloat() > b.AsFloat()
	case "<=":
		return a.AsFloat() <= b.AsFloat()
	case ">=":
		return a.AsFloat() >= b.AsFloat()
	default:
		return false
	}
}
