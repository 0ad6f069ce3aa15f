package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/pkg/registry"
)

func TestValidateInput(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []string{"code"},
		"properties": map[string]interface{}{
			"code":  map[string]interface{}{"type": "string", "minLength": 1},
			"count": map[string]interface{}{"type": "integer"},
		},
	}

	res, err := ValidateInput(map[string]interface{}{"code": "AB12", "count": 3}, schema)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = ValidateInput(map[string]interface{}{"count": "three"}, schema)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("code"))
	assert.True(t, res.HasErrors("count"))
	assert.Len(t, res.GetErrorMessages(), 2)

	res, err = ValidateInput(nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestJobValidator(t *testing.T) {
	v := NewJobValidator(registry.Default())

	tests := []struct {
		name      string
		taskType  string
		vars      map[string]interface{}
		wantField string
	}{
		{
			name:     "valid response",
			taskType: "submit-response",
			vars: map[string]interface{}{
				"code": "AB12", "name": "Ana", "phone": "5511900000001", "decision": "confirm",
			},
		},
		{
			name:      "bad decision",
			taskType:  "submit-response",
			vars:      map[string]interface{}{"code": "AB12", "name": "Ana", "phone": "1", "decision": "maybe"},
			wantField: "decision",
		},
		{
			name:      "missing confirmation id",
			taskType:  "resend-notification",
			vars:      map[string]interface{}{},
			wantField: "confirmationId",
		},
		{
			name:     "json numbers decode as float64",
			taskType: "resend-notification",
			vars:     map[string]interface{}{"confirmationId": float64(7)},
		},
		{
			name:      "empty participant list",
			taskType:  "send-invites",
			vars:      map[string]interface{}{"participantIds": []interface{}{}},
			wantField: "participantIds",
		},
		{
			name:     "unknown task type passes",
			taskType: "not-registered",
			vars:     map[string]interface{}{"anything": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.taskType, tt.vars)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			std := apperrors.AsStandard(err)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, std.Code)
			assert.Equal(t, tt.wantField, std.Metadata["field"])
		})
	}
}
