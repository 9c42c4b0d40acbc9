package validate

import (
	"os/exec"
	"testing"
)

func requireCompiler(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(compilerPath()); err != nil {
		t.Skipf("no C++ toolchain (%s) on PATH: %v", compilerPath(), err)
	}
}

func TestValidSourceCompiles(t *testing.T) {
	requireCompiler(t)
	res, err := Source("int main(){ int x = 1; return 0; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Ok {
		t.Errorf("expected valid source to compile, diagnostics: %s", res.Diagnostics)
	}
}

func TestInvalidSourceFails(t *testing.T) {
	requireCompiler(t)
	res, err := Source("int main(){ int x = ; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ok {
		t.Error("expected malformed source to fail validation")
	}
	if res.Diagnostics == "" {
		t.Error("expected non-empty diagnostics on failure")
	}
}
