package trace

import (
	"strings"

	"tracevm/internal/stmt"
	"tracevm/internal/value"
)

// emit deep-copies the live variable map and heap into a new State and
// appends it, so a snapshot survives later mutation of the live engine
// state untouched.
func emit(states *[]State, step *int, line int, rawLine, action string, vars *stmt.VarMap, heap *stmt.Heap) {
	snapVars := snapshotVars(vars)
	snapHeap := snapshotHeap(heap)
	act := action
	*states = append(*states, State{
		Step:       *step,
		Line:       line,
		SourceLine: strings.TrimSpace(rawLine),
		Action:     &act,
		Variables:  snapVars,
		Frames: []Frame{{
			ID: "frame0", FunctionName: "main", Line: line, Variables: snapVars,
		}},
		Heap: snapHeap,
	})
	*step++
}

func snapshotVars(vars *stmt.VarMap) []Variable {
	live := vars.Ordered()
	out := make([]Variable, 0, len(live))
	for _, v := range live {
		out = append(out, toWireVariable(v))
	}
	return out
}

func toWireVariable(v *stmt.Variable) Variable {
	wv := Variable{
		ID:       v.ID,
		Name:     v.Name,
		Type:     v.Type,
		Visual:   string(v.Visual),
		PointsTo: v.PointsTo.JSON(),
	}
	if v.Visual == value.VisualArray {
		elems := make([]interface{}, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = e.JSON()
		}
		wv.Elems = elems
		wv.Value = elems
	} else {
		wv.Value = v.Value.JSON()
	}
	return wv
}

func snapshotHeap(heap *stmt.Heap) []HeapObject {
	live := heap.Ordered()
	out := make([]HeapObject, 0, len(live))
	for _, o := range live {
		fields := make([]HeapField, 0, len(o.Fields))
		for _, f := range o.Fields {
			hf := HeapField{Name: f.Name, Visual: string(f.Visual)}
			if f.Visual == value.VisualPointer {
				hf.Value = f.PointsTo.JSON()
				if hf.Value == nil {
					hf.Value = "nullptr"
				}
				hf.PointsTo = f.PointsTo.JSON()
			} else {
				hf.Value = f.Value.JSON()
			}
			fields = append(fields, hf)
		}
		out = append(out, HeapObject{ID: o.ID, Type: o.Type, Fields: fields})
	}
	return out
}
