package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to process",
				Cause:   errors.New("underlying error"),
			},
			want: "failed to process: underlying error",
		},
		{
			name: "error with remote status",
			err:  ClientRequest(404, "challenge not found", nil),
			want: "challenge not found (status 404)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestRemoteErrorConstructors(t *testing.T) {
	if err := Unauthorized("nope"); !IsUnauthorized(err) || err.Status != 401 || err.Attempts != 1 {
		t.Errorf("Unauthorized() = %+v", err)
	}

	fields := map[string]string{"name": "required"}
	ce := ClientRequest(422, "invalid", fields)
	if !IsClientRequest(ce) || StatusOf(ce) != 422 || FieldsOf(ce)["name"] != "required" {
		t.Errorf("ClientRequest() = %+v", ce)
	}

	se := Server(503, "unavailable", 4)
	if !IsServer(se) || se.Attempts != 4 || StatusOf(se) != 503 {
		t.Errorf("Server() = %+v", se)
	}

	cause := errors.New("dial tcp: refused")
	ne := Network(cause, 1)
	if !IsNetwork(ne) || !errors.Is(ne, cause) {
		t.Errorf("Network() = %+v", ne)
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("list teams: %w", Server(500, "boom", 4))
	if !IsServer(wrapped) {
		t.Errorf("IsServer() should see through fmt wrapping")
	}
	if GetCode(wrapped) != ErrCodeServer {
		t.Errorf("GetCode() = %v, want %v", GetCode(wrapped), ErrCodeServer)
	}
	if StatusOf(errors.New("plain")) != 0 || FieldsOf(errors.New("plain")) != nil {
		t.Errorf("plain errors carry no remote detail")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodeInternal, "lookup %s", "u-1")
	if err.Message != "lookup u-1" || !errors.Is(err, cause) || !IsInternal(err) {
		t.Errorf("Wrapf() = %+v", err)
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "invalid")
	if !IsValidation(err) || GetField(err) != "email" {
		t.Errorf("ValidationField() = %+v", err)
	}
	if GetField(errors.New("x")) != "" {
		t.Errorf("GetField() on plain error should be empty")
	}
}
