// Package validate invokes a native C++17 toolchain as a syntactic
// validator before a session is ever traced: the engine does not execute
// compiled code, it only asks the real compiler whether the snippet is
// well-formed.
package validate

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const compileTimeout = 30 * time.Second

// Result carries the combined stdout+stderr from a failed compile. Ok is
// true only when the compiler exits zero.
type Result struct {
	Ok          bool
	Diagnostics string
}

// Source validates code by writing it to a UUID-scoped temp file and
// running a C++17 compile with -fsyntax-only, never producing an
// executable. All temp artifacts are removed on every exit path.
func Source(code string) (Result, error) {
	id := uuid.New().String()
	dir := os.TempDir()
	srcPath := filepath.Join(dir, "tracevm-"+id+".cpp")

	if err := os.WriteFile(srcPath, []byte(code), 0o600); err != nil {
		return Result{}, err
	}
	defer os.Remove(srcPath)

	ctx, cancel := context.WithTimeout(context.Background(), compileTimeout)
	defer cancel()

	compiler := compilerPath()
	cmd := exec.CommandContext(ctx, compiler, "-std=c++17", "-fsyntax-only", srcPath)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Result{Ok: false, Diagnostics: "compilation timed out after 30s"}, nil
	}
	if err != nil {
		return Result{Ok: false, Diagnostics: out.String()}, nil
	}
	return Result{Ok: true}, nil
}

// compilerPath allows overriding which toolchain binary is invoked (e.g. in
// environments that only carry clang++), defaulting to g++.
func compilerPath() string {
	if p := os.Getenv("TRACEVM_CXX"); p != "" {
		return p
	}
	return "g++"
}
