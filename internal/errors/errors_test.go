package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// RangeError Tests
// -----------------------------------------------------------------------------

func TestRangeError(t *testing.T) {
	err := NewRangeError("unionfind", 20, 20)

	want := "range error [component=unionfind, index=20, limit=20]: index out of range"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Error("RangeError should match ErrIndexOutOfRange")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Error("RangeError should not match ErrInvalidState")
	}
	if IsUserFacing(err) {
		t.Error("RangeError is a contract violation and should not be user facing")
	}
	if !IsContractViolation(err) {
		t.Error("IsContractViolation() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// StateError Tests
// -----------------------------------------------------------------------------

func TestStateError(t *testing.T) {
	err := NewStateError("sample", "uninitialized", "clusters_built")

	want := "state error [state=uninitialized]: sample requires state clusters_built"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("StateError should match ErrInvalidState")
	}

	var stateErr *StateError
	wrapped := fmt.Errorf("slot 3: %w", err)
	if !errors.As(wrapped, &stateErr) {
		t.Fatal("errors.As should find the StateError through wrapping")
	}
	if stateErr.Operation != "sample" {
		t.Errorf("Operation = %q, want %q", stateErr.Operation, "sample")
	}
}

// -----------------------------------------------------------------------------
// PoolError Tests
// -----------------------------------------------------------------------------

func TestPoolError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PoolError
		want string
	}{
		{
			name: "no context",
			err:  NewPoolError("submit rejected", nil),
			want: "pool error: submit rejected",
		},
		{
			name: "pool name and cause",
			err:  NewPoolError("submit rejected", ErrPoolShutdown).WithPool("trials"),
			want: "pool error [pool=trials]: submit rejected: pool is shut down",
		},
		{
			name: "worker zero is still reported",
			err:  NewPoolError("task panicked", ErrTaskPanicked).WithWorker(0),
			want: "pool error [worker=0]: task panicked: task panicked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoolError_Is(t *testing.T) {
	err := NewPoolError("submit rejected", ErrPoolShutdown)

	if !errors.Is(err, ErrPoolShutdown) {
		t.Error("PoolError should match its cause")
	}
	if !errors.Is(err, &PoolError{}) {
		t.Error("PoolError should match the PoolError type")
	}
	if errors.Is(err, ErrTaskPanicked) {
		t.Error("PoolError should not match an unrelated sentinel")
	}
}

// -----------------------------------------------------------------------------
// TrialError Tests
// -----------------------------------------------------------------------------

func TestTrialError(t *testing.T) {
	cause := NewStateError("sample", "lattice_generated", "clusters_built")
	err := NewTrialError(cause).WithRound(2).WithSlot(5).WithSeed(42)

	if !errors.Is(err, ErrTrialFailed) {
		t.Error("TrialError should match ErrTrialFailed")
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("TrialError should match its cause's sentinel")
	}
	if !IsRetryable(err) {
		t.Error("TrialError should be retryable")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityWarning)
	}

	want := "trial error [round=2, slot=5, seed=42]: trial failed: " + cause.Error()
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTrialError_DefaultsOmitContext(t *testing.T) {
	err := NewTrialError(nil)
	if got := err.Error(); got != "trial error: trial failed" {
		t.Errorf("Error() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be within [0, 1]").WithField("p_site").WithValue(1.5)

	want := "validation error [field=p_site, value=1.5]: must be within [0, 1]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if !IsUserFacing(err) {
		t.Error("ValidationError should be user facing")
	}
	if IsContractViolation(err) {
		t.Error("ValidationError is not a contract violation")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestClassification_NilAndForeignErrors(t *testing.T) {
	foreign := errors.New("boom")

	if IsRetryable(nil) || IsUserFacing(nil) {
		t.Error("nil should be neither retryable nor user facing")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", GetSeverity(nil))
	}
	if IsRetryable(foreign) || IsUserFacing(foreign) {
		t.Error("foreign errors should be neither retryable nor user facing")
	}
	if GetSeverity(foreign) != SeverityError {
		t.Errorf("GetSeverity(foreign) = %v, want error", GetSeverity(foreign))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := NewRangeError("lattice", 9, 4)
	err := Wrapf(base, "slot %d", 3)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Error("Wrapf should preserve the error chain")
	}
	if got := err.Error(); got != "slot 3: "+base.Error() {
		t.Errorf("Error() = %q", got)
	}
}

func TestJoinKeepsEveryCause(t *testing.T) {
	err := Join(
		NewTrialError(ErrTaskPanicked).WithSlot(1),
		NewTrialError(NewStateError("sample", "", "clusters_built")).WithSlot(2),
	)
	if !errors.Is(err, ErrTaskPanicked) || !errors.Is(err, ErrInvalidState) {
		t.Error("joined error should match both causes")
	}
}
