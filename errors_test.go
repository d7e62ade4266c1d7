package supervisor

import (
	"errors"
	"strings"
	"testing"
)

func TestOpErrorFormat(t *testing.T) {
	err := &OpError{Op: OpStart, Unit: "web", Err: ErrAlreadyRunning}

	msg := err.Error()
	if !strings.Contains(msg, "start") {
		t.Errorf("error message %q missing operation", msg)
	}
	if !strings.Contains(msg, `"web"`) {
		t.Errorf("error message %q missing unit", msg)
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	err := &OpError{Op: OpStop, Unit: "worker", Err: ErrNoContainerState}

	if !errors.Is(err, ErrNoContainerState) {
		t.Error("errors.Is failed to find sentinel through OpError")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatal("errors.As failed for *OpError")
	}
	if opErr.Op != OpStop {
		t.Errorf("Op = %v, want %v", opErr.Op, OpStop)
	}
}

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpStart, "start"},
		{OpStop, "stop"},
		{OpRestart, "restart"},
		{OpStatus, "status"},
		{OpValidate, "validate"},
		{OpUpdate, "update"},
		{OpWatch, "watch"},
		{OpUnknown, "unknown"},
		{Operation(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation.String() = %q, want %q", got, tt.want)
		}
	}
}
