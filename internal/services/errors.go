package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrLookupFailed       = errors.New("lookup failed")
	ErrGenerationFailed   = errors.New("generation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrMalformedJob       = errors.New("malformed job")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConfiguration      = errors.New("configuration error")
)

// Kind names the failure class of an error for logs and API payloads.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindLookupFailed       Kind = "lookup_failed"
	KindGenerationFailed   Kind = "generation_failed"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindMalformedJob       Kind = "malformed_job"
	KindValidation         Kind = "validation"
	KindUnauthorized       Kind = "unauthorized"
	KindConfiguration      Kind = "configuration"
	KindUnknown            Kind = "unknown"
)

var markerKinds = []struct {
	marker error
	kind   Kind
	hint   string
}{
	{ErrMalformedJob, KindMalformedJob, "inspect the job payload; the producer sent an unsupported shape"},
	{ErrNotFound, KindNotFound, "target record or lookup result no longer exists"},
	{ErrStorageUnavailable, KindStorageUnavailable, "check document store and queue database access"},
	{ErrLookupFailed, KindLookupFailed, "check nutrition provider reachability and api key"},
	{ErrGenerationFailed, KindGenerationFailed, "check image provider reachability and api key"},
	{ErrValidation, KindValidation, "fix the request payload"},
	{ErrUnauthorized, KindUnauthorized, "supply a valid bearer token"},
	{ErrConfiguration, KindConfiguration, "review the configuration file"},
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrLookupFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the structured view of an error used by failure logging.
type ErrorDetails struct {
	Kind    Kind
	Message string
	Hint    string
	Cause   error
}

// Details classifies err against the sentinel markers.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	details := ErrorDetails{
		Kind:    KindUnknown,
		Message: strings.TrimSpace(err.Error()),
		Hint:    "check logs for details",
		Cause:   err,
	}
	for _, entry := range markerKinds {
		if errors.Is(err, entry.marker) {
			details.Kind = entry.kind
			details.Hint = entry.hint
			break
		}
	}
	return details
}

// IsBenign reports whether err describes an expected condition that should
// complete a job rather than fail it.
func IsBenign(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
