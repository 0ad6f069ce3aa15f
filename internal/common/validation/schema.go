package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks input against a JSON schema given as a Go map.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	if input == nil {
		input = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(r *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: r.Valid()}
	for _, desc := range r.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// JobValidator checks job variables against the input schema registered for
// the job's task type. Compiled schemas are cached per task type.
type JobValidator struct {
	registry *registry.ActivityRegistry

	mu       sync.Mutex
	compiled map[string]*gojsonschema.Schema
}

func NewJobValidator(reg *registry.ActivityRegistry) *JobValidator {
	return &JobValidator{registry: reg, compiled: map[string]*gojsonschema.Schema{}}
}

// Validate returns a validation StandardError naming the first offending
// field. Task types without a registered schema pass.
func (v *JobValidator) Validate(taskType string, vars map[string]interface{}) error {
	schema, err := v.schemaFor(taskType)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if schema == nil {
		return nil
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(vars))
	if err != nil {
		return apperrors.NewValidationError("variables", err.Error())
	}
	if result.Valid() {
		return nil
	}

	res := toResult(result)
	return apperrors.NewValidationError(res.Errors[0].Field, strings.Join(res.GetErrorMessages(), "; "))
}

func (v *JobValidator) schemaFor(taskType string) (*gojsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[taskType]; ok {
		return s, nil
	}
	activity, ok := v.registry.Find(taskType)
	if !ok || len(activity.InputSchema) == 0 {
		v.compiled[taskType] = nil
		return nil, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(activity.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", taskType, err)
	}
	v.compiled[taskType] = s
	return s, nil
}
