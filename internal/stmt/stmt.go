// Package stmt recognizes one line of source against a fixed catalogue of
// twelve statement shapes, tried in priority order, against one
// already-loop-substituted source line.
package stmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tracevm/internal/env"
	"tracevm/internal/evalexpr"
	"tracevm/internal/value"
)

// Result is what one Apply call reports back to the trace driver.
type Result struct {
	Changed bool
	Action  string
}

var primitiveTypes = map[string]bool{
	"int": true, "float": true, "double": true, "char": true,
	"bool": true, "long": true, "short": true,
}

var (
	reArrayDecl   = regexp.MustCompile(`^(\w+)\s+(\w+)\s*\[\s*\d*\s*\]\s*=\s*\{(.*)\}$`)
	reArrayElem   = regexp.MustCompile(`^(\w+)\s*\[\s*(\d+)\s*\]\s*=\s*(.+)$`)
	rePrimDecl    = regexp.MustCompile(`^(\w+)\s+(\w+)\s*=\s*(.+)$`)
	rePtrNew      = regexp.MustCompile(`^(\w+)\s*\*\s*(\w+)\s*=\s*new\s+(\w+)\s*\(\s*\)$`)
	rePtrAddr     = regexp.MustCompile(`^(\w+)\s*\*\s*(\w+)\s*=\s*&\s*(\w+)$`)
	rePtrNull     = regexp.MustCompile(`^(\w+)\s*\*\s*(\w+)\s*=\s*(nullptr|NULL)$`)
	reMemberSet   = regexp.MustCompile(`^(\w+)\s*->\s*(\w+)\s*=\s*(.+)$`)
	rePtrReassign = regexp.MustCompile(`^(\w+)\s*=\s*(\w+)\s*->\s*(\w+)$`)
	reReassign    = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)
	reIncDec      = regexp.MustCompile(`^(\+\+|--)?(\w+)(\+\+|--)?$`)
	reCompound    = regexp.MustCompile(`^(\w+)\s*([+\-*/])=\s*(.+)$`)
	reSwap        = regexp.MustCompile(`^swap\s*\(\s*(\w+)\s*\[\s*(\d+)\s*\]\s*,\s*(\w+)\s*\[\s*(\d+)\s*\]\s*\)$`)

	pointerFieldNames = map[string]bool{"next": true, "prev": true}
)

// skipPrefixes are lines the recognizer never mutates state for: they are
// either structural (braces, loop/branch headers already handled one layer
// up) or outside the single modelled frame.
var skipPrefixes = []string{
	"#", "//", "return", "cout", "cin", "for", "while", "if", "struct", "class", "void", "{", "}",
}

// Apply strips trailing comments/semicolons from line, tries each statement
// shape in priority order, and mutates vars/heap on the first match.
func Apply(line string, vars *VarMap, heap *Heap) Result {
	text := clean(line)
	if text == "" {
		return Result{}
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(text, p) {
			return Result{}
		}
	}
	if strings.Contains(text, "(") && strings.Contains(text, ")") && strings.Contains(text, "main") {
		return Result{}
	}

	if m := reArrayDecl.FindStringSubmatch(text); m != nil {
		return applyArrayDecl(m, vars)
	}
	if m := reArrayElem.FindStringSubmatch(text); m != nil {
		return applyArrayElem(m, vars)
	}
	if m := rePtrNew.FindStringSubmatch(text); m != nil {
		return applyPtrNew(m, vars, heap)
	}
	if m := rePtrAddr.FindStringSubmatch(text); m != nil {
		return applyPtrAddr(m, vars)
	}
	if m := rePtrNull.FindStringSubmatch(text); m != nil {
		return applyPtrNull(m, vars)
	}
	if primitiveTypes[firstWord(text)] {
		if m := rePrimDecl.FindStringSubmatch(text); m != nil {
			return applyPrimDecl(m, vars)
		}
	}
	if m := reMemberSet.FindStringSubmatch(text); m != nil {
		return applyMemberSet(m, vars, heap)
	}
	// Shape 8 fires before the plain-reassignment fallback even when the
	// left-hand name isn't itself a pointer — a quirk carried over
	// unchanged rather than papered over.
	if m := rePtrReassign.FindStringSubmatch(text); m != nil {
		return applyPtrReassign(m, vars, heap)
	}
	if m := reCompound.FindStringSubmatch(text); m != nil {
		return applyCompound(m, vars)
	}
	if m := reSwap.FindStringSubmatch(text); m != nil {
		return applySwap(m, vars)
	}
	if m := reIncDec.FindStringSubmatch(text); m != nil && (m[1] != "" || m[3] != "") {
		return applyIncDec(m, vars)
	}
	if m := reReassign.FindStringSubmatch(text); m != nil {
		return applyReassign(m, vars)
	}
	return Result{}
}

func clean(line string) string {
	text := line
	if i := strings.Index(text, "//"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	return strings.TrimSpace(text)
}

func firstWord(text string) string {
	i := strings.IndexAny(text, " \t*")
	if i < 0 {
		return text
	}
	return text[:i]
}

func applyPrimDecl(m []string, vars *VarMap) Result {
	typ, name, expr := m[1], m[2], m[3]
	v := evalexpr.Eval(expr, vars)
	vars.Set(&Variable{ID: name, Name: name, Type: typ, Value: v, Visual: value.VisualPrimitive})
	return Result{Changed: true, Action: fmt.Sprintf("Created %s = %s", name, v.String())}
}

func applyArrayDecl(m []string, vars *VarMap) Result {
	typ, name, initList := m[1], m[2], m[3]
	var elems []value.Value
	if strings.TrimSpace(initList) != "" {
		for _, part := range strings.Split(initList, ",") {
			elems = append(elems, evalexpr.Eval(strings.TrimSpace(part), vars))
		}
	}
	vars.Set(&Variable{ID: name, Name: name, Type: typ + "[]", Visual: value.VisualArray, Elems: elems})
	return Result{Changed: true, Action: fmt.Sprintf("Created array %s with %d elements", name, len(elems))}
}

func applyArrayElem(m []string, vars *VarMap) Result {
	name := m[1]
	idx, _ := strconv.Atoi(m[2])
	v, ok := vars.Get(name)
	if !ok || v.Visual != value.VisualArray {
		return Result{}
	}
	if idx < 0 || idx >= len(v.Elems) {
		// Out-of-range writes are dropped, not resized.
		return Result{}
	}
	newVal := evalexpr.Eval(m[3], vars)
	v.Elems[idx] = newVal
	return Result{Changed: true, Action: fmt.Sprintf("%s[%d] = %s", name, idx, newVal.String())}
}

func applyPtrNew(m []string, vars *VarMap, heap *Heap) Result {
	typ, name, heapType := m[1], m[2], m[3]
	obj := heap.Alloc(heapType)
	vars.Set(&Variable{ID: name, Name: name, Type: typ + "*", Visual: value.VisualPointer, PointsTo: value.HeapRef(obj.ID)})
	return Result{Changed: true, Action: fmt.Sprintf("Allocated %s via new %s()", name, heapType)}
}

func applyPtrAddr(m []string, vars *VarMap) Result {
	typ, name, target := m[1], m[2], m[3]
	vars.Set(&Variable{ID: name, Name: name, Type: typ + "*", Visual: value.VisualPointer, PointsTo: value.VarRef(target)})
	return Result{Changed: true, Action: fmt.Sprintf("%s now points to %s", name, target)}
}

func applyPtrNull(m []string, vars *VarMap) Result {
	typ, name := m[1], m[2]
	vars.Set(&Variable{ID: name, Name: name, Type: typ + "*", Visual: value.VisualPointer, PointsTo: value.NoRef()})
	return Result{Changed: true, Action: fmt.Sprintf("Created %s = nullptr", name)}
}

func applyMemberSet(m []string, vars *VarMap, heap *Heap) Result {
	ptrName, field, expr := m[1], m[2], m[3]
	p, ok := vars.Get(ptrName)
	if !ok || p.PointsTo.Kind != value.RefHeap {
		return Result{}
	}
	obj, ok := heap.Get(p.PointsTo.ID)
	if !ok {
		return Result{}
	}
	fv := evalexpr.Eval(expr, vars)
	visual := value.VisualPrimitive
	var ref value.Ref
	if pointerFieldNames[field] || fv.Kind == value.Null {
		visual = value.VisualPointer
		if target, ok := vars.Get(strings.TrimSpace(expr)); ok {
			ref = target.PointsTo
		} else {
			ref = value.NoRef()
		}
	}
	newField := Field{Name: field, Value: fv, Visual: visual, PointsTo: ref}
	if idx := obj.fieldIndex(field); idx >= 0 {
		obj.Fields[idx] = newField
	} else {
		obj.Fields = append(obj.Fields, newField)
	}
	return Result{Changed: true, Action: fmt.Sprintf("%s->%s = %s", ptrName, field, fv.String())}
}

// applyPtrReassign implements shape 8: `name = src->field` copies the
// referenced field's points_to into name, regardless of whether name was
// ever declared a pointer — this rule fires ahead of plain reassignment,
// so `x = y->z` on a non-pointer x still copies a pointer.
func applyPtrReassign(m []string, vars *VarMap, heap *Heap) Result {
	name, srcPtr, field := m[1], m[2], m[3]
	existing, _ := vars.Get(name)
	typ := "auto*"
	if existing != nil {
		typ = existing.Type
	}
	ref := value.NoRef()
	if src, ok := vars.Get(srcPtr); ok && src.PointsTo.Kind == value.RefHeap {
		if obj, ok := heap.Get(src.PointsTo.ID); ok {
			if idx := obj.fieldIndex(field); idx >= 0 {
				ref = obj.Fields[idx].PointsTo
			}
		}
	}
	vars.Set(&Variable{ID: name, Name: name, Type: typ, Visual: value.VisualPointer, PointsTo: ref})
	return Result{Changed: true, Action: fmt.Sprintf("%s = %s->%s", name, srcPtr, field)}
}

func applyReassign(m []string, vars *VarMap) Result {
	name, expr := m[1], m[2]
	existing, ok := vars.Get(name)
	if !ok {
		return Result{}
	}
	if existing.Visual == value.VisualArray {
		return Result{}
	}
	newVal := evalexpr.Eval(expr, vars)
	old := existing.Value
	existing.Value = newVal
	return Result{Changed: true, Action: fmt.Sprintf("%s changed: %s -> %s", name, old.String(), newVal.String())}
}

func applyIncDec(m []string, vars *VarMap) Result {
	name := m[2]
	op := m[1]
	if op == "" {
		op = m[3]
	}
	v, ok := vars.Get(name)
	if !ok {
		return Result{}
	}
	delta := int64(1)
	if op == "--" {
		delta = -1
	}
	v.Value = value.Int64(v.Value.AsInt() + delta)
	return Result{Changed: true, Action: fmt.Sprintf("%s%s", name, op)}
}

func applyCompound(m []string, vars *VarMap) Result {
	name, op, expr := m[1], m[2], m[3]
	v, ok := vars.Get(name)
	if !ok {
		return Result{}
	}
	rhs := evalexpr.Eval(expr, vars)
	a, b := v.Value.AsInt(), rhs.AsInt()
	var result int64
	switch op {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		// Compound division always truncates to integer regardless of
		// declared type.
		if b == 0 {
			result = 0
		} else {
			result = a / b
		}
	}
	v.Value = value.Int64(result)
	return Result{Changed: true, Action: fmt.Sprintf("%s %s= %s", name, op, expr)}
}

func applySwap(m []string, vars *VarMap) Result {
	aName, aIdxS, bName, bIdxS := m[1], m[2], m[3], m[4]
	aIdx, _ := strconv.Atoi(aIdxS)
	bIdx, _ := strconv.Atoi(bIdxS)
	av, ok1 := vars.Get(aName)
	bv, ok2 := vars.Get(bName)
	if !ok1 || !ok2 || aIdx < 0 || aIdx >= len(av.Elems) || bIdx < 0 || bIdx >= len(bv.Elems) {
		return Result{}
	}
	av.Elems[aIdx], bv.Elems[bIdx] = bv.Elems[bIdx], av.Elems[aIdx]
	return Result{Changed: true, Action: fmt.Sprintf("swap(%s[%d], %s[%d])", aName, aIdx, bName, bIdx)}
}

var _ env.Vars = (*VarMap)(nil)
