package trace

import "testing"

func TestPrimitivesAndSum(t *testing.T) {
	src := `int main(){
int x=10;
int y=20;
int sum=x+y;
return 0;
}`
	states := Run(src)
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	final := states[len(states)-1]
	want := map[string]int64{"x": 10, "y": 20, "sum": 30}
	if len(final.Variables) != 3 {
		t.Fatalf("expected 3 variables, got %d: %+v", len(final.Variables), final.Variables)
	}
	for _, v := range final.Variables {
		if v.Visual != "primitive" {
			t.Errorf("%s: expected primitive, got %s", v.Name, v.Visual)
		}
		if int64(v.Value.(int64)) != want[v.Name] {
			t.Errorf("%s: got %v want %d", v.Name, v.Value, want[v.Name])
		}
	}
}

func TestArrayAndLiteralForLoop(t *testing.T) {
	src := `int main(){
int arr[5]={1,2,3,4,5};
for(int i=0;i<5;i++){
arr[i]=arr[i]*2;
}
}`
	states := Run(src)
	if len(states) != 6 {
		t.Fatalf("expected 6 states, got %d", len(states))
	}
	final := states[len(states)-1]
	arr := findVar(final.Variables, "arr")
	if arr == nil {
		t.Fatal("arr not found in final state")
	}
	want := []int64{2, 4, 6, 8, 10}
	for i, e := range arr.Elems {
		if e.(int64) != want[i] {
			t.Errorf("arr[%d] = %v, want %d", i, e, want[i])
		}
	}
}

func TestVariableBoundedLoop(t *testing.T) {
	src := `int main(){
int n=4;
int arr[4]={0,0,0,0};
for(int i=0;i<n;i++){
arr[i]=i;
}
}`
	states := Run(src)
	final := states[len(states)-1]
	arr := findVar(final.Variables, "arr")
	if arr == nil {
		t.Fatal("arr not found")
	}
	want := []int64{0, 1, 2, 3}
	for i, e := range arr.Elems {
		if e.(int64) != want[i] {
			t.Errorf("arr[%d] = %v, want %d", i, e, want[i])
		}
	}
}

func TestLinkedListOfThreeNodes(t *testing.T) {
	src := `struct Node{int data; Node* next;};
int main(){
Node* head=new Node();
head->data=10;
Node* second=new Node();
second->data=20;
head->next=second;
Node* third=new Node();
third->data=30;
second->next=third;
third->next=nullptr;
}`
	states := Run(src)
	final := states[len(states)-1]
	if len(final.Heap) != 3 {
		t.Fatalf("expected 3 heap objects, got %d: %+v", len(final.Heap), final.Heap)
	}
	head := findVar(final.Variables, "head")
	if head == nil || head.PointsTo != final.Heap[0].ID {
		t.Errorf("head should point to first heap object, got %+v vs %+v", head, final.Heap[0])
	}
	first := final.Heap[0]
	if len(first.Fields) != 2 || first.Fields[0].Name != "data" || first.Fields[0].Value.(int64) != 10 {
		t.Fatalf("unexpected first object fields: %+v", first.Fields)
	}
	if first.Fields[1].Name != "next" || first.Fields[1].Visual != "pointer" {
		t.Fatalf("expected next field marked pointer: %+v", first.Fields[1])
	}
	third := final.Heap[2]
	nextField := findField(third.Fields, "next")
	if nextField == nil || nextField.Value != "nullptr" {
		t.Fatalf("third.next should be nullptr, got %+v", nextField)
	}
}

func TestConditionalInsideLoop(t *testing.T) {
	src := `int main(){
int count=0;
for(int i=0;i<6;i++){
if(i%2==0){
count=count+1;
}
}
}`
	states := Run(src)
	final := states[len(states)-1]
	count := findVar(final.Variables, "count")
	if count == nil || count.Value.(int64) != 3 {
		t.Fatalf("expected count=3, got %+v", count)
	}
}

func TestSyntheticStartWhenNoSteps(t *testing.T) {
	states := Run("int main(){\n}")
	if len(states) != 1 || states[0].Action == nil || *states[0].Action != "Program start" {
		t.Fatalf("expected synthetic start state, got %+v", states)
	}
}

func TestStepIndicesAreSequential(t *testing.T) {
	src := `int main(){
int x=1;
int y=2;
}`
	states := Run(src)
	for k, st := range states {
		if st.Step != k {
			t.Errorf("states[%d].Step = %d, want %d", k, st.Step, k)
		}
	}
}

func TestIterationCountClamped(t *testing.T) {
	src := `int main(){
for(int i=0;i<1000;i++){
int x=i;
}
}`
	states := Run(src)
	// 1 emission per iteration ("Created x = i"), clamped to 50.
	if len(states) != 50 {
		t.Fatalf("expected 50 states (clamped), got %d", len(states))
	}
}

func findVar(vars []Variable, name string) *Variable {
	for i := range vars {
		if vars[i].Name == name {
			return &vars[i]
		}
	}
	return nil
}

func findField(fields []HeapField, name string) *HeapField {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}
