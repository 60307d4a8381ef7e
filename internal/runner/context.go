package runner

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gavelworks/gavel/internal/pipelines"
	"github.com/gavelworks/gavel/internal/runs"
)

// StepContext carries everything a step handler may read or write. Values
// is the shared in-run context: steps run strictly in order, so later steps
// see what earlier steps wrote.
type StepContext struct {
	Run    runs.Run
	Step   pipelines.StepDefinition
	Values map[string]any
	Logger *slog.Logger

	appender runs.System
}

// Log appends an entry to the run's execution log. Append failures are
// reported to the service log but do not fail the step; the log is
// diagnostic, the entities are the source of truth.
func (sc *StepContext) Log(ctx context.Context, level, message string, data map[string]any) {
	var payload json.RawMessage
	if len(data) > 0 {
		if encoded, err := json.Marshal(data); err == nil {
			payload = encoded
		}
	}

	stepID := sc.Step.ID
	cmd := runs.LogCommand{
		Level:   level,
		Message: message,
		Data:    payload,
	}
	if stepID != "" {
		cmd.StepID = &stepID
	}

	if err := sc.appender.AppendLog(ctx, sc.Run.ID, cmd); err != nil {
		sc.Logger.Error("append run log", "run", sc.Run.ID, "error", err)
	}
}
