package hydration

import (
	"errors"
	"log/slog"

	"pantrypal/internal/logging"
)

// errNameChanged aborts a patch whose record was renamed after the job was
// queued. The rename enqueued a fresh job for the new name.
var errNameChanged = errors.New("record renamed since job was queued")

func logSkipped(logger *slog.Logger, decision, reason string, err error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldDecisionType, decision),
		logging.String("decision_result", "skipped"),
		logging.String("decision_reason", reason),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logger.Info("hydration decision", logging.Args(attrs...)...)
}

func logApplied(logger *slog.Logger, decision string, attrs ...logging.Attr) {
	attrs = append([]logging.Attr{
		logging.String(logging.FieldDecisionType, decision),
		logging.String("decision_result", "applied"),
	}, attrs...)
	logger.Info("hydration decision", logging.Args(attrs...)...)
}
