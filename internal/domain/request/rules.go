package request

import "strings"

const (
	StatusPending     = "Pending"
	StatusRejected    = "Rejected"
	StatusImplemented = "Implemented"

	DefaultPriority = "Medium"
)

// Statuses lists every legal status value. Transitions between them are
// deliberately unrestricted: the administrative update accepts any member
// in any order.
var Statuses = []string{StatusPending, StatusRejected, StatusImplemented}

func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// RequiredFields are checked, in this order, before a submission is
// persisted. Field names match the API payload keys.
var RequiredFields = []string{
	"title",
	"requestorName",
	"requestorEmail",
	"department",
	"summary",
	"description",
	"changeType",
	"priority",
	"targetDate",
}

// updatableFields is the administrative allow-list. submittedDate and the
// identity/descriptive fields are immutable after creation.
var updatableFields = map[string]struct{}{
	"status":              {},
	"assignedTo":          {},
	"comments":            {},
	"reviewer":            {},
	"initiator":           {},
	"requestedBy":         {},
	"dateRequested":       {},
	"systemName":          {},
	"policyFormComplete":  {},
	"sopTrainingComplete": {},
}

func IsUpdatable(field string) bool {
	_, ok := updatableFields[strings.TrimSpace(field)]
	return ok
}
