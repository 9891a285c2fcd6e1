package workflow

import (
	"log/slog"
	"strings"

	"pantrypal/internal/logging"
	"pantrypal/internal/services"
)

func (d *Dispatcher) logFailure(logger *slog.Logger, out Outcome) {
	details := services.Details(out.Err)
	attrs := []logging.Attr{
		logging.String("resolved_state", string(StateFailed)),
		logging.Alert("job_failure"),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.String(logging.FieldImpact, "target record left without this enrichment"),
		logging.Any("payload", out.Job.Payload),
		logging.Int("attempt", out.Delivery.Attempt),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(out.Err))
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed", attrs...)
}

func failureReason(err error) string {
	if err == nil {
		return "failed without error detail"
	}
	message := strings.TrimSpace(services.Details(err).Message)
	if message == "" {
		return "failed without error detail"
	}
	const limit = 512
	if len(message) > limit {
		message = message[:limit] + "..."
	}
	return message
}
