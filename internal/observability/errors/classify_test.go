package errors

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/target/ctf-console/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error code", fmt.Errorf("call: %w", apperrors.Server(502, "bad gateway", 4)), "server_error"},
		{"plain errors.New", errors.New("x"), "errors_errorstring"},
		{"custom pointer type", fmt.Errorf("wrap: %w", &customErr{}), "errors_customerr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
