package runner_test

import (
	"errors"
	"testing"

	"github.com/gavelworks/gavel/internal/runner"
)

func TestOutcomeVariants(t *testing.T) {
	failure := errors.New("extraction produced nothing")

	tests := []struct {
		name          string
		outcome       runner.Outcome
		wantSucceeded bool
		wantRetryable bool
		wantErr       error
	}{
		{
			name:          "success",
			outcome:       runner.Success(map[string]any{"count": 3}),
			wantSucceeded: true,
		},
		{
			name:          "recoverable",
			outcome:       runner.Recoverable(failure),
			wantRetryable: true,
			wantErr:       failure,
		},
		{
			name:    "fatal",
			outcome: runner.Fatal(failure),
			wantErr: failure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Succeeded(); got != tt.wantSucceeded {
				t.Errorf("Succeeded() = %v, want %v", got, tt.wantSucceeded)
			}
			if got := tt.outcome.Retryable(); got != tt.wantRetryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.wantRetryable)
			}
			if !errors.Is(tt.outcome.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", tt.outcome.Err(), tt.wantErr)
			}
		})
	}
}

func TestSuccessCarriesData(t *testing.T) {
	data := map[string]any{"tender_reference": "TND-2026-001"}
	o := runner.Success(data)

	if o.Data()["tender_reference"] != "TND-2026-001" {
		t.Errorf("Data() = %v", o.Data())
	}
	if runner.Fatal(errors.New("x")).Data() != nil {
		t.Error("failure outcome carries data")
	}
}

func TestStepErrorUnwraps(t *testing.T) {
	cause := errors.New("template not registered")
	err := &runner.StepError{StepID: "checklist", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("StepError does not unwrap to its cause")
	}
	if err.Error() != "step checklist failed: template not registered" {
		t.Errorf("Error() = %q", err.Error())
	}
}
