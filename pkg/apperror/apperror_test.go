package apperror

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("session_id too long"), http.StatusBadRequest},
		{"not found", NotFound("experiment %q", "exp1"), http.StatusNotFound},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admin access required"), http.StatusForbidden},
		{"storage", Storage("insert visit", errors.New("conn refused")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("conn refused")
	err := Storage("insert visit", cause)

	if !errors.Is(err, ErrStorage) {
		t.Error("expected ErrStorage")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to stay in the chain")
	}
	if PublicMessage(err) != "Internal server error" {
		t.Errorf("PublicMessage leaked %q", PublicMessage(err))
	}
}
