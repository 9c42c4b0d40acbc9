package session

import (
	"os/exec"
	"testing"

	"tracevm/internal/apierr"
)

func requireCompiler(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("g++"); err != nil {
		t.Skipf("no g++ on PATH: %v", err)
	}
}

func TestStartStepEndLifecycle(t *testing.T) {
	requireCompiler(t)
	r := NewRegistry()
	sess, aerr := r.Start("int main(){\nint x=1;\nint y=2;\nint z=3;\n}")
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	if sess.CurrentStep != 0 {
		t.Fatalf("expected fresh session at step 0, got %d", sess.CurrentStep)
	}

	_, atEnd, aerr := r.StepForward(sess.ID)
	if aerr != nil || atEnd {
		t.Fatalf("expected successful, non-terminal step-forward, got atEnd=%v err=%v", atEnd, aerr)
	}

	aerr = r.End(sess.ID)
	if aerr != nil {
		t.Fatalf("unexpected error ending session: %v", aerr)
	}

	// Idempotent: ending again reports not-found.
	aerr = r.End(sess.ID)
	if aerr == nil || aerr.Kind != apierr.SessionNotFound {
		t.Fatalf("expected SessionNotFound on double end, got %v", aerr)
	}
}

func TestStepForwardIdempotentAtEnd(t *testing.T) {
	requireCompiler(t)
	r := NewRegistry()
	sess, aerr := r.Start("int main(){ int x=1; }")
	if aerr != nil {
		t.Fatalf("unexpected error: %v", aerr)
	}
	last := len(sess.States) - 1
	for i := 0; i < last+5; i++ {
		_, _, aerr = r.StepForward(sess.ID)
		if aerr != nil {
			t.Fatalf("unexpected error: %v", aerr)
		}
	}
	if sess.CurrentStep != last {
		t.Errorf("expected clamped at %d, got %d", last, sess.CurrentStep)
	}
	_, atEnd, _ := r.StepForward(sess.ID)
	if !atEnd {
		t.Error("expected atEnd=true once past the last step")
	}
}

func TestStepBackwardIdempotentAtStart(t *testing.T) {
	requireCompiler(t)
	r := NewRegistry()
	sess, _ := r.Start("int main(){ int x=1; }")
	_, atStart, aerr := r.StepBackward(sess.ID)
	if aerr != nil || !atStart {
		t.Fatalf("expected atStart=true at step 0, got %v %v", atStart, aerr)
	}
}

func TestGetStateOutOfRange(t *testing.T) {
	requireCompiler(t)
	r := NewRegistry()
	sess, _ := r.Start("int main(){ int x=1; }")
	_, aerr := r.GetState(sess.ID, 9999)
	if aerr == nil || aerr.Kind != apierr.Validation {
		t.Fatalf("expected ValidationError for out-of-range step, got %v", aerr)
	}
}

func TestCompilationFailureStoresNoSession(t *testing.T) {
	requireCompiler(t)
	r := NewRegistry()
	_, aerr := r.Start("int main(){ int x = ; }")
	if aerr == nil || aerr.Kind != apierr.Compilation {
		t.Fatalf("expected CompilationError, got %v", aerr)
	}
	if len(r.sessions) != 0 {
		t.Errorf("expected no session stored on compile failure, got %d", len(r.sessions))
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	r := NewRegistry()
	_, _, aerr := r.StepForward("does-not-exist")
	if aerr == nil || aerr.Kind != apierr.SessionNotFound {
		t.Fatalf("expected SessionNotFound, got %v", aerr)
	}
}
