package stmt

import (
	"strconv"

	"tracevm/internal/value"
)

// Variable is one entry of the live variable map: a stack-frame-local name
// bound to a primitive value, an array of values, or a pointer.
type Variable struct {
	ID       string
	Name     string
	Type     string
	Value    value.Value
	Visual   value.VisualKind
	PointsTo value.Ref
	Elems    []value.Value // non-nil only when Visual == VisualArray
}

func (v *Variable) clone() *Variable {
	c := *v
	if v.Elems != nil {
		c.Elems = append([]value.Value(nil), v.Elems...)
	}
	return &c
}

// Field is one entry of a HeapObject's ordered field list.
type Field struct {
	Name     string
	Value    value.Value
	Visual   value.VisualKind
	PointsTo value.Ref
}

// HeapObject models one `new T()` allocation: a nominal type and an ordered,
// append-as-you-go field list, grown lazily as `ptr->field = expr` lines are
// matched.
type HeapObject struct {
	ID     string
	Type   string
	Fields []Field
}

func (h *HeapObject) fieldIndex(name string) int {
	for i := range h.Fields {
		if h.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func (h *HeapObject) clone() *HeapObject {
	c := *h
	c.Fields = append([]Field(nil), h.Fields...)
	return &c
}

// VarMap is the single simulated `main` frame's name→Variable mapping,
// insertion-ordered for deterministic rendering.
type VarMap struct {
	order []string
	byName map[string]*Variable
}

func NewVarMap() *VarMap {
	return &VarMap{byName: map[string]*Variable{}}
}

func (m *VarMap) Get(name string) (*Variable, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// Set inserts or replaces a variable, preserving first-insertion order.
func (m *VarMap) Set(v *Variable) {
	if _, exists := m.byName[v.Name]; !exists {
		m.order = append(m.order, v.Name)
	}
	m.byName[v.Name] = v
}

// Ordered returns variables in insertion order.
func (m *VarMap) Ordered() []*Variable {
	out := make([]*Variable, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.byName[name])
	}
	return out
}

// Clone deep-copies the map: independent Variable structs and independent
// Elems slices, so a later mutation of the live map can never perturb a
// previously emitted snapshot.
func (m *VarMap) Clone() *VarMap {
	c := NewVarMap()
	for _, name := range m.order {
		c.order = append(c.order, name)
		c.byName[name] = m.byName[name].clone()
	}
	return c
}

// env.Vars implementation, so a *VarMap can be handed directly to
// evalexpr.Eval / evalcond.Eval without an adapter type.

func (m *VarMap) Lookup(name string) (value.Value, bool) {
	v, ok := m.byName[name]
	if !ok {
		return value.Value{}, false
	}
	return v.Value, true
}

func (m *VarMap) ArrayLen(name string) (int, bool) {
	v, ok := m.byName[name]
	if !ok || v.Visual != value.VisualArray {
		return 0, false
	}
	return len(v.Elems), true
}

func (m *VarMap) ArrayElem(name string, index int) (value.Value, bool) {
	v, ok := m.byName[name]
	if !ok || v.Visual != value.VisualArray || index < 0 || index >= len(v.Elems) {
		return value.Value{}, false
	}
	return v.Elems[index], true
}

// Deref implements `*p`: the symbolic value of what p points to. Only a
// pointer-to-variable resolves to something meaningful; a pointer to a heap
// object has no single scalar value, so it degrades to 0 like any other
// unmodeled form.
func (m *VarMap) Deref(name string) (value.Value, bool) {
	v, ok := m.byName[name]
	if !ok || v.PointsTo.Kind != value.RefVar {
		return value.Value{}, false
	}
	target, ok := m.byName[v.PointsTo.Name]
	if !ok {
		return value.Value{}, false
	}
	return target.Value, true
}

// Heap is the HeapId→HeapObject mapping, insertion-ordered.
type Heap struct {
	order []string
	byID  map[string]*HeapObject
	next  int
}

func NewHeap() *Heap {
	return &Heap{byID: map[string]*HeapObject{}}
}

// Alloc creates a new heap object of the given nominal type with an empty
// field list and returns its freshly minted id.
func (h *Heap) Alloc(typeName string) *HeapObject {
	id := newHeapID(&h.next)
	obj := &HeapObject{ID: id, Type: typeName}
	h.order = append(h.order, id)
	h.byID[id] = obj
	return obj
}

func newHeapID(counter *int) string {
	id := "heap" + strconv.Itoa(*counter)
	*counter++
	return id
}

func (h *Heap) Get(id string) (*HeapObject, bool) {
	o, ok := h.byID[id]
	return o, ok
}

func (h *Heap) Ordered() []*HeapObject {
	out := make([]*HeapObject, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}

// Clone deep-copies the heap for snapshot independence.
func (h *Heap) Clone() *Heap {
	c := NewHeap()
	c.next = h.next
	for _, id := range h.order {
		c.order = append(c.order, id)
		c.byID[id] = h.byID[id].clone()
	}
	return c
}
