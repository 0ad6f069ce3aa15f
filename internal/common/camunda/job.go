// internal/common/camunda/job.go
package camunda

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/validation"
)

// DecodeVariables checks the job variables against the input schema of the
// job's task type and unmarshals them into out. validator may be nil.
func DecodeVariables(job entities.Job, validator *validation.JobValidator, out interface{}) error {
	raw := job.GetVariables()
	if raw == "" {
		raw = "{}"
	}

	if validator != nil {
		var vars map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &vars); err != nil {
			return apperrors.NewParseError(err)
		}
		if err := validator.Validate(job.GetType(), vars); err != nil {
			return err
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperrors.NewParseError(err)
	}
	return nil
}

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}
