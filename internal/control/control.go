// Package control discovers loop and branch structure in a source listing:
// brace-matched loop-body boundaries, for-header parsing, iteration-count
// resolution (clamped to [0, 50]), and the if-skip brace bookkeeping used
// while replaying a loop body.
package control

import (
	"regexp"
	"strconv"
	"strings"

	"tracevm/internal/env"
)

// LoopKind distinguishes a for-loop (bounded, computed) from a while-loop
// (fixed at 10 iterations; its condition is never consulted, so a loop
// whose condition would exit earlier still runs the full count).
type LoopKind int

const (
	ForLoop LoopKind = iota
	WhileLoop
)

// Loop describes one discovered loop header and its brace-matched body.
type Loop struct {
	Kind      LoopKind
	HeaderIdx int // index into the line slice of the "for(...)"/"while(...)" line
	BodyStart int // first body line index, always HeaderIdx+1 (a lone '{' line there is skipped as structural)
	EndIdx    int // index of the matching closing '}'
	ForSpec   ForSpec
}

var forHeaderRe = regexp.MustCompile(
	`^for\s*\(\s*(?:int|long|short)?\s*(\w+)\s*=\s*(\w+)\s*;\s*\w+\s*(<=|>=|!=|<|>)\s*(\w+)\s*;\s*\w+(\+\+|--|\+=\s*\w+|-=\s*\w+)\s*\)`)

var whileHeaderRe = regexp.MustCompile(`^while\s*\(`)

// ForSpec is the parsed shape of `for (T? v = S ; v OP E ; v++|v--|v+=k|v-=k)`.
// S and E are carried as raw text (literal or identifier) and resolved
// against the live variable map at loop-entry time — late binding, so a
// later update to the bound variable inside the body is never observed
// once the loop has started.
type ForSpec struct {
	Var   string
	Start string
	End   string
	Op    string // <, <=, >, >=, !=
	Step  string // ++, --, or +=k / -=k (k literal)
}

// DiscoverLoops scans source lines for `for`/`while` headers and records
// each one's brace-matched body range.
func DiscoverLoops(lines []string) []Loop {
	var loops []Loop
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if m := forHeaderRe.FindStringSubmatch(line); m != nil {
			end := matchBrace(lines, i)
			loops = append(loops, Loop{
				Kind: ForLoop, HeaderIdx: i, BodyStart: i + 1, EndIdx: end,
				ForSpec: ForSpec{Var: m[1], Start: m[2], Op: m[3], End: m[4], Step: m[5]},
			})
		} else if whileHeaderRe.MatchString(line) {
			end := matchBrace(lines, i)
			loops = append(loops, Loop{Kind: WhileLoop, HeaderIdx: i, BodyStart: i + 1, EndIdx: end})
		}
	}
	return loops
}

// LoopAt returns the loop whose header is at lineIdx, if any.
func LoopAt(loops []Loop, lineIdx int) (Loop, bool) {
	for _, l := range loops {
		if l.HeaderIdx == lineIdx {
			return l, true
		}
	}
	return Loop{}, false
}

// matchBrace finds the line index of the '}' that closes the '{' first
// opened at or after startLine, by depth counting over brace characters.
func matchBrace(lines []string, startLine int) int {
	depth := 0
	seenOpen := false
	for i := startLine; i < len(lines); i++ {
		for _, c := range lines[i] {
			switch c {
			case '{':
				depth++
				seenOpen = true
			case '}':
				depth--
				if seenOpen && depth == 0 {
					return i
				}
			}
		}
	}
	return len(lines) - 1
}

// ResolveBound resolves a for-header bound: a decimal literal evaluates
// directly; an identifier is looked up in the live variable map (0 if
// unknown, per the total-evaluation contract the rest of the engine keeps).
func ResolveBound(text string, vars env.Vars) int {
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	if v, ok := vars.Lookup(text); ok {
		return int(v.AsInt())
	}
	return 0
}

// Iterations resolves a for-loop's bounds against the live variable map and
// returns the iteration count, clamped to a hard ceiling of 50 so a
// pathological bound can never blow up the replay.
func (s ForSpec) Iterations(vars env.Vars) int {
	start := ResolveBound(s.Start, vars)
	end := ResolveBound(s.End, vars)
	var n int
	switch s.Op {
	case "<":
		n = end - start
	case "<=":
		n = end - start + 1
	case ">":
		n = start - end
	case ">=":
		n = start - end + 1
	case "!=":
		n = end - start
		if n < 0 {
			n = -n
		}
	}
	return clamp(n, 0, 50)
}

// IterValue computes the induction variable's value at iteration k (0-based).
func (s ForSpec) IterValue(startVal, k int) int {
	switch {
	case s.Step == "++" || strings.HasPrefix(s.Step, "+="):
		step := stepAmount(s.Step, 1)
		return startVal + k*step
	case s.Step == "--" || strings.HasPrefix(s.Step, "-="):
		step := stepAmount(s.Step, 1)
		return startVal - k*step
	default:
		return startVal + k
	}
}

func stepAmount(step string, def int) int {
	if step == "++" || step == "--" {
		return def
	}
	amt := strings.TrimPrefix(strings.TrimPrefix(step, "+="), "-=")
	amt = strings.TrimSpace(amt)
	if n, err := strconv.Atoi(amt); err == nil {
		return n
	}
	return def
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// WhileIterations is the fixed number of times every while-loop body runs.
// The loop's own condition is never consulted, so termination is decoupled
// from the program's actual semantics — a quirk carried over unchanged
// rather than papered over.
const WhileIterations = 10

var ifHeaderRe = regexp.MustCompile(`^if\s*\((.*)\)\s*\{?\s*$`)

// IfCondition extracts the condition text from an `if (cond) {` (or
// `if (cond)` with the brace on the next line) header line.
func IfCondition(line string) (string, bool) {
	m := ifHeaderRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasOpenBrace reports whether the if-header line itself opened the block.
func HasOpenBrace(line string) bool {
	return strings.Contains(line, "{")
}

// SkipToMatchingBrace returns the line index of the '}' that closes the
// block opened at openIdx (which already contains or is followed by '{'),
// honoring nested brace depth for nested ifs.
func SkipToMatchingBrace(lines []string, openIdx int) int {
	return matchBrace(lines, openIdx)
}
