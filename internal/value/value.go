// Package value defines the tagged-union Value representation shared by the
// expression evaluator, the statement recognizer, and the trace driver.
//
// The original engine this was distilled from threads values around as
// interface{} and leans on Go-style duck typing ("return 0 or return the raw
// string") to paper over cases it can't resolve. Here a value is always one
// of a fixed set of kinds, so "unknown identifier" and "zero" are the same
// explicit case instead of an accident of formatting.
package value

import "fmt"

// Kind tags which alternative of Value is populated.
type Kind int

const (
	Int Kind = iota
	Float
	Bool
	Char
	String
	Addr // address-token, e.g. "&x"
	Null // the null pointer; only Null compares equal to itself
)

// Value is a tagged union over the primitive forms the engine understands.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	C    byte
	S    string // used by both String and Addr kinds
}

func Int64(i int64) Value   { return Value{Kind: Int, I: i} }
func Float64(f float64) Value { return Value{Kind: Float, F: f} }
func Bool_(b bool) Value    { return Value{Kind: Bool, B: b} }
func Char_(c byte) Value    { return Value{Kind: Char, C: c} }
func Str(s string) Value    { return Value{Kind: String, S: s} }
func AddrOf(name string) Value { return Value{Kind: Addr, S: "&" + name} }
func Null_() Value          { return Value{Kind: Null} }
func Zero() Value           { return Int64(0) }

// IsNumeric reports whether the value participates in arithmetic directly.
func (v Value) IsNumeric() bool {
	return v.Kind == Int || v.Kind == Float || v.Kind == Char || v.Kind == Bool
}

// AsFloat widens any numeric kind to float64 for mixed arithmetic.
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case Int:
		return float64(v.I)
	case Float:
		return v.F
	case Char:
		return float64(v.C)
	case Bool:
		if v.B {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AsInt truncates any numeric kind toward zero.
func (v Value) AsInt() int64 {
	switch v.Kind {
	case Int:
		return v.I
	case Float:
		return int64(v.F)
	case Char:
		return int64(v.C)
	case Bool:
		if v.B {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Truthy implements the condition evaluator's fallback rule: non-zero,
// non-empty-string, or boolean true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case Int:
		return v.I != 0
	case Float:
		return v.F != 0
	case Bool:
		return v.B
	case Char:
		return v.C != 0
	case String:
		return v.S != ""
	case Null:
		return false
	case Addr:
		return true
	default:
		return false
	}
}

// Equal implements the one special rule of the data model: only a null
// pointer compares equal to itself regardless of what's being compared to it.
func Equal(a, b Value) bool {
	if a.Kind == Null || b.Kind == Null {
		return a.Kind == Null && b.Kind == Null
	}
	if a.IsNumeric() && b.IsNumeric() {
		return a.AsFloat() == b.AsFloat()
	}
	if a.Kind == String && b.Kind == String {
		return a.S == b.S
	}
	if a.Kind == Addr && b.Kind == Addr {
		return a.S == b.S
	}
	return false
}

// JSON renders the value the way the wire schema wants it: a number, a
// string, or (for arrays, handled one level up) a slice of these.
func (v Value) JSON() interface{} {
	switch v.Kind {
	case Int:
		return v.I
	case Float:
		return v.F
	case Bool:
		return v.B
	case Char:
		return string(rune(v.C))
	case String:
		return v.S
	case Addr:
		return v.S
	case Null:
		return "nullptr"
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Int:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%g", v.F)
	case Bool:
		return fmt.Sprintf("%t", v.B)
	case Char:
		return string(rune(v.C))
	case String:
		return v.S
	case Addr:
		return v.S
	case Null:
		return "nullptr"
	default:
		return "?"
	}
}

// VisualKind is the UI-facing rendering tag, distinct from the C++ declared type.
type VisualKind string

const (
	VisualPrimitive VisualKind = "primitive"
	VisualArray     VisualKind = "array"
	VisualPointer   VisualKind = "pointer"
)

// RefKind discriminates what a pointer's points_to field resolves to, so the
// reference is never stringly ambiguous the way the original's "&name" /
// heap-id-as-string convention was.
type RefKind int

const (
	RefNone RefKind = iota
	RefVar
	RefHeap
)

// Ref is a discriminated pointer target: either a named stack variable or a
// heap object, or nothing (null).
type Ref struct {
	Kind RefKind
	Name string // set when Kind == RefVar
	ID   string // set when Kind == RefHeap
}

func NoRef() Ref            { return Ref{Kind: RefNone} }
func VarRef(name string) Ref { return Ref{Kind: RefVar, Name: name} }
func HeapRef(id string) Ref  { return Ref{Kind: RefHeap, ID: id} }

func (r Ref) IsNull() bool { return r.Kind == RefNone }

// JSON renders a Ref as the wire schema's pointsTo field: the bare id of
// the referenced variable or heap object, or null. No prefix marks which
// of the two it is: heap ids are always "heapN", so a variable that is
// itself named like "heap0" renders the same as that heap id.
func (r Ref) JSON() interface{} {
	switch r.Kind {
	case RefVar:
		return r.Name
	case RefHeap:
		return r.ID
	default:
		return nil
	}
}
