// Package apierr implements the error taxonomy shared by the HTTP façade
// and the CLI: a small set of kinds, not Go types, each carrying just
// enough structure to render a consistent message — no stack-trace or
// source-location machinery, since a line-oriented trace engine has no
// call stack to report.
package apierr

import "fmt"

// Kind tags which of the four taxonomy entries an Error represents.
type Kind string

const (
	Validation      Kind = "ValidationError"
	Compilation     Kind = "CompilationError"
	SessionNotFound Kind = "SessionNotFoundError"
	Internal        Kind = "InternalError"
)

// Error carries a Kind plus the message and (for compilation failures) the
// diagnostic text the native validator produced.
type Error struct {
	Kind    Kind
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s\n%s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

func NewCompilation(diagnostics string) *Error {
	return &Error{Kind: Compilation, Message: "Compilation Error", Details: diagnostics}
}

func NewSessionNotFound(sessionID string) *Error {
	return &Error{Kind: SessionNotFound, Message: fmt.Sprintf("session not found: %s", sessionID)}
}

func NewInternal(message string) *Error {
	return &Error{Kind: Internal, Message: message}
}

// HTTPStatus maps a Kind to its wire status code. Compilation and
// session-not-found failures are domain outcomes, not transport failures,
// so they ride back on 200 with success:false.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case Validation:
		return 400
	case Internal:
		return 500
	default:
		return 200
	}
}

// As reports whether err is an *Error, for callers that only have the
// error interface (e.g. from internal/validate).
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}
