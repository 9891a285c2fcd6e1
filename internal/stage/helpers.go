package stage

import (
	"pantrypal/internal/jobs"
	"pantrypal/internal/services"
)

// RequireFields validates a job before a handler touches storage.
// On failure it returns a services.ErrMalformedJob error.
func RequireFields(job jobs.Job, want jobs.Type) error {
	if job.Type != want {
		return services.Wrap(services.ErrMalformedJob, "stage", "route",
			"handler for "+string(want)+" received "+string(job.Type), nil)
	}
	return job.Validate()
}
