package request

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainrequest "changectl/internal/domain/request"
	"changectl/internal/errs"
)

// updatableColumns maps allow-listed API field names to store columns.
// Everything else in an update payload is ignored, not rejected.
var updatableColumns = map[string]string{
	"status":              "status",
	"assignedTo":          "assigned_to",
	"comments":            "comments",
	"reviewer":            "reviewer",
	"initiator":           "initiator",
	"requestedBy":         "requested_by",
	"dateRequested":       "date_requested",
	"systemName":          "system_name",
	"policyFormComplete":  "policy_form_complete",
	"sopTrainingComplete": "sop_training_complete",
}

// Update applies an administrative partial update and returns the affected
// row count (0 when the requestID matches nothing). A status change triggers
// a best-effort sync of the new value once the local write has succeeded.
func (s *Service) Update(ctx context.Context, input UpdateInput) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}

	requestID := strings.TrimSpace(input.RequestID)
	if requestID == "" {
		return 0, &domainrequest.ValidationError{Field: "requestId", Reason: "is required"}
	}

	columns := make(map[string]any, len(input.Fields))
	var newStatus string
	for field, raw := range input.Fields {
		column, ok := updatableColumns[field]
		if !ok {
			continue
		}

		switch field {
		case "policyFormComplete", "sopTrainingComplete":
			value, err := coerceBool(raw)
			if err != nil {
				return 0, &domainrequest.ValidationError{Field: field, Reason: err.Error()}
			}
			columns[column] = value
		case "status":
			status, err := coerceString(raw)
			if err != nil {
				return 0, &domainrequest.ValidationError{Field: field, Reason: err.Error()}
			}
			status = strings.TrimSpace(status)
			if !domainrequest.ValidStatus(status) {
				return 0, domainrequest.ErrInvalidStatus
			}
			columns[column] = status
			newStatus = status
		default:
			value, err := coerceString(raw)
			if err != nil {
				return 0, &domainrequest.ValidationError{Field: field, Reason: err.Error()}
			}
			columns[column] = value
		}
	}

	if len(columns) == 0 {
		return 0, domainrequest.ErrEmptyUpdate
	}

	var affected int64
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		affected, err = s.repo.UpdateByRequestID(txCtx, requestID, columns)
		return err
	}); err != nil {
		return 0, err
	}

	if newStatus != "" && affected > 0 {
		s.enqueueSyncStatus(ctx, requestID, newStatus)
	}

	return affected, nil
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", raw)
	}
}

// coerceBool accepts the shapes JSON clients actually send for the 0/1
// checkbox columns: booleans, numbers and "0"/"1"/"true"/"false" strings.
func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true, nil
		case "", "0", "false", "no":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean value %q", v)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", raw)
	}
}
