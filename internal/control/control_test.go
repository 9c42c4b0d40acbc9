package control

import (
	"testing"

	"tracevm/internal/value"
)

type fakeVars map[string]value.Value

func (f fakeVars) Lookup(name string) (value.Value, bool) { v, ok := f[name]; return v, ok }
func (f fakeVars) ArrayLen(string) (int, bool)             { return 0, false }
func (f fakeVars) ArrayElem(string, int) (value.Value, bool) {
	return value.Value{}, false
}
func (f fakeVars) Deref(string) (value.Value, bool) { return value.Value{}, false }

func TestDiscoverForLoop(t *testing.T) {
	lines := []string{
		"int main(){",
		"int arr[5]={1,2,3,4,5};",
		"for(int i=0;i<5;i++){",
		"arr[i]=arr[i]*2;",
		"}",
		"}",
	}
	loops := DiscoverLoops(lines)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %d", len(loops))
	}
	if loops[0].HeaderIdx != 2 || loops[0].EndIdx != 4 {
		t.Errorf("got header=%d end=%d", loops[0].HeaderIdx, loops[0].EndIdx)
	}
	if loops[0].ForSpec.Var != "i" || loops[0].ForSpec.Op != "<" || loops[0].ForSpec.End != "5" {
		t.Errorf("got spec=%+v", loops[0].ForSpec)
	}
}

func TestIterationsClampedTo50(t *testing.T) {
	spec := ForSpec{Var: "i", Start: "0", End: "1000", Op: "<", Step: "++"}
	n := spec.Iterations(fakeVars{})
	if n != 50 {
		t.Errorf("expected clamp to 50, got %d", n)
	}
}

func TestIterationsVariableBound(t *testing.T) {
	spec := ForSpec{Var: "i", Start: "0", End: "n", Op: "<", Step: "++"}
	n := spec.Iterations(fakeVars{"n": value.Int64(4)})
	if n != 4 {
		t.Errorf("expected 4, got %d", n)
	}
}

func TestIterationsOperators(t *testing.T) {
	cases := []struct {
		op   string
		s, e int
		want int
	}{
		{"<", 0, 5, 5},
		{"<=", 0, 5, 6},
		{">", 5, 0, 5},
		{">=", 5, 0, 6},
		{"!=", 0, 5, 5},
	}
	for _, c := range cases {
		spec := ForSpec{Op: c.op, Start: itoaForTest(c.s), End: itoaForTest(c.e)}
		got := spec.Iterations(fakeVars{})
		if got != c.want {
			t.Errorf("op %s: got %d want %d", c.op, got, c.want)
		}
	}
}

func itoaForTest(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func TestWhileLoopDiscoveryFixedIterations(t *testing.T) {
	lines := []string{"int main(){", "while(true){", "x++;", "}", "}"}
	loops := DiscoverLoops(lines)
	if len(loops) != 1 || loops[0].Kind != WhileLoop {
		t.Fatalf("expected 1 while loop, got %+v", loops)
	}
	if WhileIterations != 10 {
		t.Errorf("while iterations should be fixed at 10, got %d", WhileIterations)
	}
}

func TestIfConditionExtraction(t *testing.T) {
	cond, ok := IfCondition("if (i%2==0) {")
	if !ok || cond != "i%2==0" {
		t.Errorf("got cond=%q ok=%v", cond, ok)
	}
}

func TestSkipToMatchingBraceNested(t *testing.T) {
	lines := []string{
		"if (x>0) {",
		"if (y>0) {",
		"z=1;",
		"}",
		"}",
	}
	end := SkipToMatchingBrace(lines, 0)
	if end != 4 {
		t.Errorf("expected nested brace match at 4, got %d", end)
	}
}
