package registry

// Categories.
const (
	CategoryRoutes        = "routes"
	CategoryConfirmation  = "confirmation"
	CategoryParticipants  = "participants"
	CategoryNotifications = "notifications"
	CategoryAdmin         = "administration"
)

const workflowRSVP = "event-rsvp"

type schema = map[string]interface{}

func object(required []string, props schema) schema {
	s := schema{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(minLength int) schema {
	s := schema{"type": "string"}
	if minLength > 0 {
		s["minLength"] = minLength
	}
	return s
}

func enum(values ...string) schema {
	return schema{"type": "string", "enum": values}
}

func positiveInt() schema {
	return schema{"type": "integer", "minimum": 1}
}

func arrayOf(items schema, minItems int) schema {
	s := schema{"type": "array", "items": items}
	if minItems > 0 {
		s["minItems"] = minItems
	}
	return s
}

// Default returns the registry of every worker hosted by worker-manager.
func Default() *ActivityRegistry {
	templateTypes := enum("invite", "confirmAck", "declineAck", "eventInfo")

	reg := &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:          "issue-route",
				DisplayName: "Issue Route",
				Description: "Allocates a unique single-use route code, optionally bound to a participant",
				Category:    CategoryRoutes,
				TaskType:    "issue-route",
				InputSchema: object(nil, schema{
					"participantId": positiveInt(),
				}),
				OutputSchema: object([]string{"code"}, schema{
					"code":          str(1),
					"participantId": schema{"type": "integer"},
				}),
				ErrorCodes: []string{"CODE_SPACE_EXHAUSTED", "STORAGE_FAILURE"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "submit-response",
				DisplayName: "Submit Response",
				Description: "Records a confirm or decline decision for a route and sends the acknowledgement",
				Category:    CategoryConfirmation,
				TaskType:    "submit-response",
				InputSchema: object([]string{"code", "name", "phone", "decision"}, schema{
					"code":     str(1),
					"name":     str(1),
					"phone":    str(1),
					"email":    str(0),
					"decision": enum("confirm", "decline"),
				}),
				OutputSchema: object([]string{"code", "decision"}, schema{
					"code":     str(1),
					"decision": enum("confirm", "decline"),
					"notified": schema{"type": "boolean"},
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "NOT_FOUND", "ALREADY_USED", "STORAGE_FAILURE"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "import-participants",
				DisplayName: "Import Participants",
				Description: "Normalizes questionnaire rows, skips duplicates and issues a route per new participant",
				Category:    CategoryParticipants,
				TaskType:    "import-participants",
				InputSchema: object(nil, schema{
					"source":     enum("inline", "sheet"),
					"rows":       arrayOf(schema{"type": "object", "additionalProperties": schema{"type": "string"}}, 0),
					"sheetRange": str(0),
				}),
				OutputSchema: object([]string{"processed", "imported"}, schema{
					"processed":  schema{"type": "integer"},
					"imported":   schema{"type": "integer"},
					"duplicates": schema{"type": "integer"},
					"errors":     schema{"type": "integer"},
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "STORAGE_FAILURE"},
				Timeout:    "5m",
				Retries:    1,
			},
			{
				ID:          "send-invites",
				DisplayName: "Send Invites",
				Description: "Sends the invite template to the selected participants",
				Category:    CategoryNotifications,
				TaskType:    "send-invites",
				InputSchema: object([]string{"participantIds"}, schema{
					"participantIds": arrayOf(positiveInt(), 1),
				}),
				OutputSchema: object([]string{"sent"}, schema{
					"requested": schema{"type": "integer"},
					"sent":      schema{"type": "integer"},
					"failed":    schema{"type": "integer"},
					"skipped":   schema{"type": "integer"},
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "STORAGE_FAILURE"},
				Timeout:    "5m",
				Retries:    0,
			},
			{
				ID:          "send-notification",
				DisplayName: "Send Notification",
				Description: "Renders a template and delivers it through the relay",
				Category:    CategoryNotifications,
				TaskType:    "send-notification",
				InputSchema: object([]string{"templateType"}, schema{
					"templateType":  templateTypes,
					"phone":         str(0),
					"email":         str(0),
					"participantId": schema{"type": "integer"},
					"code":          str(0),
					"variables":     schema{"type": "object", "additionalProperties": schema{"type": "string"}},
				}),
				OutputSchema: object([]string{"deliveryId", "status"}, schema{
					"deliveryId": str(1),
					"status":     enum("sent", "failed"),
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "TEMPLATE_MISSING", "RELAY_DELIVERY_FAILED"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "resend-notification",
				DisplayName: "Resend Notification",
				Description: "Replays the confirmation acknowledgement and flags the confirmation as sent",
				Category:    CategoryNotifications,
				TaskType:    "resend-notification",
				InputSchema: object([]string{"confirmationId"}, schema{
					"confirmationId": positiveInt(),
				}),
				OutputSchema: object([]string{"deliveryId", "status"}, schema{
					"deliveryId": str(1),
					"status":     enum("sent", "failed"),
				}),
				ErrorCodes: []string{"NOT_FOUND", "TEMPLATE_MISSING", "RELAY_DELIVERY_FAILED", "STORAGE_FAILURE"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "manage-templates",
				DisplayName: "Manage Templates",
				Description: "Lists, edits and toggles message templates, keeping a revision history",
				Category:    CategoryNotifications,
				TaskType:    "manage-templates",
				InputSchema: object([]string{"action"}, schema{
					"action":     enum("list", "get", "update", "set-active", "history", "seed"),
					"templateId": positiveInt(),
					"title":      str(0),
					"body":       str(0),
					"variables":  arrayOf(str(1), 0),
					"editor":     str(0),
					"reason":     str(0),
					"active":     schema{"type": "boolean"},
				}),
				OutputSchema: object(nil, schema{
					"template":  schema{"type": "object"},
					"templates": schema{"type": "array"},
					"revisions": schema{"type": "array"},
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "NOT_FOUND", "STORAGE_FAILURE"},
				Timeout:    "30s",
				Retries:    3,
			},
			{
				ID:          "workflow-admin",
				DisplayName: "Workflow Administration",
				Description: "Operator actions: stats, pending list, route backfill, test data and reset",
				Category:    CategoryAdmin,
				TaskType:    "workflow-admin",
				InputSchema: object([]string{"action"}, schema{
					"action":  enum("stats", "pending", "issue-missing", "purge-test", "seed-test", "reset"),
					"count":   positiveInt(),
					"confirm": schema{"type": "boolean"},
				}),
				OutputSchema: object([]string{"action"}, schema{
					"action": str(1),
				}),
				ErrorCodes: []string{"VALIDATION_FAILED", "STORAGE_FAILURE", "CODE_SPACE_EXHAUSTED"},
				Timeout:    "5m",
				Retries:    0,
			},
		},
	}

	for i := range reg.Activities {
		a := &reg.Activities[i]
		a.Version = "1.0.0"
		a.ImplementationStatus = "completed"
		a.Workflows = []string{workflowRSVP}
		a.Tags = []string{a.Category}
	}
	reg.Touch()
	return reg
}
