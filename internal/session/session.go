// Package session is the in-process session registry: it maps an opaque
// session id to a precomputed trace and serves the start/step-forward/
// step-backward/get-state/end operations that make up the engine's
// contract with its external callers. The registry itself — mutual
// exclusion on create/lookup/delete over a shared map — is ambient
// plumbing every deployment of this engine needs.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tracevm/internal/apierr"
	"tracevm/internal/trace"
	"tracevm/internal/validate"
)

// Session is one traced program: its source, its full precomputed state
// sequence, and the caller's current cursor into it. The engine is
// stateless between Start calls; all per-session mutable state lives here.
type Session struct {
	ID          string
	Source      string
	States      []trace.State
	CurrentStep int
	CreatedAt   time.Time
}

// Registry is the process-wide session table. Zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Start validates code with the native compiler, runs the trace engine if
// validation succeeds, and stores the resulting session under a fresh
// UUID v4 id. On validation failure no session is stored.
func (r *Registry) Start(code string) (*Session, *apierr.Error) {
	result, err := validate.Source(code)
	if err != nil {
		return nil, apierr.NewInternal(err.Error())
	}
	if !result.Ok {
		return nil, apierr.NewCompilation(result.Diagnostics)
	}

	states := trace.Run(code)

	sess := &Session{
		ID:        uuid.New().String(),
		Source:    code,
		States:    states,
		CreatedAt: timeNow(),
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	return sess, nil
}

func (r *Registry) get(id string) (*Session, *apierr.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, apierr.NewSessionNotFound(id)
	}
	return sess, nil
}

// StepForward advances current_step, clamped to the last index: idempotent
// at the end, reports atEnd.
func (r *Registry) StepForward(id string) (*Session, bool, *apierr.Error) {
	sess, aerr := r.get(id)
	if aerr != nil {
		return nil, false, aerr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	last := len(sess.States) - 1
	if sess.CurrentStep < last {
		sess.CurrentStep++
	}
	return sess, sess.CurrentStep == last, nil
}

// StepBackward retreats current_step, clamped to 0: idempotent at the
// start, reports atStart.
func (r *Registry) StepBackward(id string) (*Session, bool, *apierr.Error) {
	sess, aerr := r.get(id)
	if aerr != nil {
		return nil, false, aerr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess.CurrentStep > 0 {
		sess.CurrentStep--
	}
	return sess, sess.CurrentStep == 0, nil
}

// GetState is random access: it moves the session's cursor to step and
// returns the session; it fails on an out-of-range step.
func (r *Registry) GetState(id string, step int) (*Session, *apierr.Error) {
	sess, aerr := r.get(id)
	if aerr != nil {
		return nil, aerr
	}
	if step < 0 || step >= len(sess.States) {
		return nil, apierr.NewValidation("step out of range")
	}
	r.mu.Lock()
	sess.CurrentStep = step
	r.mu.Unlock()
	return sess, nil
}

// End drops the trace. Idempotent: ending an already-gone session reports
// session-not-found rather than panicking.
func (r *Registry) End(id string) *apierr.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return apierr.NewSessionNotFound(id)
	}
	delete(r.sessions, id)
	return nil
}

// timeNow is isolated behind a var so tests can stub it without reaching
// into the clock.
var timeNow = func() time.Time { return time.Now() }
