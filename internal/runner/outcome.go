// Package runner executes pipeline definitions step by step against a
// tender, with per-step retry, continue-on-error semantics, cooperative
// cancellation, and an append-only execution log.
package runner

// outcomeKind discriminates the Outcome variants.
type outcomeKind int

const (
	kindSuccess outcomeKind = iota
	kindRecoverable
	kindFatal
)

// Outcome is the tagged result of one step attempt. Recoverable failures
// are retried up to the step's limit; fatal failures abort the run
// immediately.
type Outcome struct {
	kind outcomeKind
	data map[string]any
	err  error
}

// Success returns an Outcome carrying values to merge into the shared run
// context.
func Success(data map[string]any) Outcome {
	return Outcome{kind: kindSuccess, data: data}
}

// Recoverable returns a retryable failure Outcome.
func Recoverable(err error) Outcome {
	return Outcome{kind: kindRecoverable, err: err}
}

// Fatal returns a non-retryable failure Outcome.
func Fatal(err error) Outcome {
	return Outcome{kind: kindFatal, err: err}
}

// Succeeded reports whether the attempt completed.
func (o Outcome) Succeeded() bool { return o.kind == kindSuccess }

// Retryable reports whether the attempt may be re-run.
func (o Outcome) Retryable() bool { return o.kind == kindRecoverable }

// Err returns the failure, or nil for success.
func (o Outcome) Err() error { return o.err }

// Data returns the values produced by a successful attempt.
func (o Outcome) Data() map[string]any { return o.data }
