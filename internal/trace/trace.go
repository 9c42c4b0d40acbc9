// Package trace runs the three-pass algorithm that turns a source snippet
// into an ordered list of State snapshots, deep-copying the variable map
// and heap at every observable change.
package trace

import (
	"strconv"
	"strings"

	"tracevm/internal/control"
	"tracevm/internal/evalcond"
	"tracevm/internal/stmt"
	"tracevm/internal/value"
)

// Variable and HeapObject are the wire-facing, already-deep-copied view of
// one snapshot's live state. They are plain value types: no shared backing
// arrays with the live stmt.VarMap/Heap.
type Variable struct {
	ID       string
	Name     string
	Type     string
	Value    interface{}
	Elems    []interface{}
	Visual   string
	PointsTo interface{}
}

type HeapField struct {
	Name     string
	Value    interface{}
	Visual   string
	PointsTo interface{}
}

type HeapObject struct {
	ID     string
	Type   string
	Fields []HeapField
}

type Frame struct {
	ID           string
	FunctionName string
	Line         int
	Variables    []Variable
}

// State is one immutable snapshot of the program's variables, call frames,
// and heap at a point where something observable changed.
type State struct {
	Step       int
	Line       int
	SourceLine string
	Action     *string
	Variables  []Variable
	Frames     []Frame
	Heap       []HeapObject
}

// Run executes the three-pass algorithm over source and returns the
// ordered snapshot list. It never fails: unmodeled constructs simply
// produce no step.
func Run(source string) []State {
	lines := splitLines(source)

	// Pass A: run the statement recognizer with emission suppressed,
	// stopping at the first loop header. Its map and heap are discarded
	// before Pass C, which rebuilds both from the top.
	vars := stmt.NewVarMap()
	heap := stmt.NewHeap()
	for _, line := range lines {
		if isLoopHeader(line) {
			break
		}
		stmt.Apply(line, vars, heap)
	}

	// Pass B: loop discovery by brace matching over the raw lines; it
	// does not read the variable map.
	loops := control.DiscoverLoops(lines)

	// Pass C: replay from the top, emitting snapshots, expanding loop
	// bodies and honoring if-skips. Loop bounds that name variables are
	// resolved against this pass's live map when each loop is entered.
	vars = stmt.NewVarMap()
	heap = stmt.NewHeap()
	var states []State
	step := 0

	i := 0
	for i < len(lines) {
		line := lines[i]
		if loop, ok := control.LoopAt(loops, i); ok {
			i = runLoop(loop, lines, vars, heap, &states, &step)
			continue
		}
		if cond, ok := control.IfCondition(line); ok {
			taken := evalcond.Eval(cond, vars)
			openIdx := i
			if !control.HasOpenBrace(line) && i+1 < len(lines) {
				openIdx = i + 1
			}
			end := control.SkipToMatchingBrace(lines, openIdx)
			if taken {
				i++ // step into the body on the next iteration of this loop
				continue
			}
			i = end + 1
			continue
		}
		res := stmt.Apply(line, vars, heap)
		if res.Changed {
			emit(&states, &step, i+1, line, res.Action, vars, heap)
		}
		i++
	}

	if len(states) == 0 {
		states = append(states, syntheticStart())
	}
	return states
}

// runLoop expands one discovered loop's body for its resolved iteration
// count, emitting a snapshot per observable body-line change, and returns
// the line index to resume scanning from (just past the loop's closing
// brace).
func runLoop(loop control.Loop, lines []string, vars *stmt.VarMap, heap *stmt.Heap, states *[]State, step *int) int {
	body := lines[loop.BodyStart:loop.EndIdx]

	switch loop.Kind {
	case control.ForLoop:
		spec := loop.ForSpec
		startVal := control.ResolveBound(spec.Start, vars)
		n := spec.Iterations(vars)
		for k := 0; k < n; k++ {
			iv := spec.IterValue(startVal, k)
			vars.Set(&stmt.Variable{ID: spec.Var, Name: spec.Var, Type: "int", Value: value.Int64(int64(iv)), Visual: value.VisualPrimitive})
			runBody(body, loop.BodyStart, vars, heap, states, step, substitute(spec.Var, iv))
		}
	case control.WhileLoop:
		for k := 0; k < control.WhileIterations; k++ {
			runBody(body, loop.BodyStart, vars, heap, states, step, identitySubst)
		}
	}
	return loop.EndIdx + 1
}

// runBody executes one loop-body pass: per-line induction-variable
// substitution, if-skip handling, and statement dispatch with emission.
func runBody(body []string, baseLine int, vars *stmt.VarMap, heap *stmt.Heap, states *[]State, step *int, subst func(string) string) {
	j := 0
	for j < len(body) {
		line := subst(body[j])
		if cond, ok := control.IfCondition(line); ok {
			taken := evalcond.Eval(cond, vars)
			openIdx := j
			if !control.HasOpenBrace(line) && j+1 < len(body) {
				openIdx = j + 1
			}
			end := control.SkipToMatchingBrace(body, openIdx)
			if taken {
				j++
				continue
			}
			j = end + 1
			continue
		}
		res := stmt.Apply(line, vars, heap)
		if res.Changed {
			emit(states, step, baseLine+j+1, line, res.Action, vars, heap)
		}
		j++
	}
}

func identitySubst(s string) string { return s }

func substitute(ivar string, val int) func(string) string {
	from := ivar
	to := strconv.Itoa(val)
	return func(line string) string {
		// `[<ivar>]` → `[<value>]`
		line = strings.ReplaceAll(line, "["+from+"]", "["+to+"]")
		return substituteWord(line, from, to)
	}
}

// substituteWord replaces whole-word occurrences of name with repl,
// leaving longer identifiers that merely contain name untouched.
func substituteWord(line, name, repl string) string {
	var b strings.Builder
	i := 0
	for i < len(line) {
		if isWordStart(line, i) && strings.HasPrefix(line[i:], name) && isWordBoundaryAfter(line, i+len(name)) {
			b.WriteString(repl)
			i += len(name)
			continue
		}
		b.WriteByte(line[i])
		i++
	}
	return b.String()
}

func isWordStart(line string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordChar(line[i-1])
}

func isWordBoundaryAfter(line string, i int) bool {
	if i >= len(line) {
		return true
	}
	return !isWordChar(line[i])
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isLoopHeader(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "for") || strings.HasPrefix(t, "while")
}

func splitLines(source string) []string {
	return strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
}

func syntheticStart() State {
	action := "Program start"
	return State{Step: 0, Line: 1, SourceLine: "", Action: &action}
}
