package apierr

import (
	"strings"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NewValidation("bad"), 400},
		{NewInternal("boom"), 500},
		{NewCompilation("diag"), 200},
		{NewSessionNotFound("x"), 200},
	}
	for _, c := range cases {
		if got := c.err.HTTPStatus(); got != c.want {
			t.Errorf("%s: got %d want %d", c.err.Kind, got, c.want)
		}
	}
}

func TestErrorMessageIncludesDetails(t *testing.T) {
	err := NewCompilation("error: expected expression")
	msg := err.Error()
	if !strings.Contains(msg, "error: expected expression") {
		t.Fatalf("expected message to include details, got %q", msg)
	}
}
