package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainrequest "changectl/internal/domain/request"
	"changectl/internal/errs"
	"changectl/internal/ports"
)

// Submit validates a submission, assigns its identity and defaults, and
// persists it. Sync and notification side effects are enqueued after the
// record is durable; their failure never surfaces to the caller.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (ports.ChangeRequest, error) {
	if ctx == nil {
		return ports.ChangeRequest{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.ChangeRequest{}, errs.Wrap(err, "check context")
	}

	if err := validateRequired(input); err != nil {
		return ports.ChangeRequest{}, err
	}

	now := nowUTCString()

	requestID := strings.TrimSpace(input.RequestID)
	if requestID == "" {
		requestID = domainrequest.NewRequestID(time.Now())
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = domainrequest.DefaultPriority
	}
	requestedBy := strings.TrimSpace(input.RequestedBy)
	if requestedBy == "" {
		requestedBy = strings.TrimSpace(input.RequestorName)
	}
	submittedDate := strings.TrimSpace(input.SubmittedDate)
	if submittedDate == "" {
		submittedDate = now
	}
	dateRequested := strings.TrimSpace(input.DateRequested)
	if dateRequested == "" {
		dateRequested = submittedDate
	}

	record := ports.ChangeRequest{
		RequestID:           requestID,
		Title:               input.Title,
		RequestorName:       input.RequestorName,
		RequestorEmail:      input.RequestorEmail,
		Department:          input.Department,
		Summary:             input.Summary,
		Description:         input.Description,
		ChangeType:          input.ChangeType,
		Priority:            priority,
		TargetDate:          input.TargetDate,
		Documents:           input.Documents,
		SpiceWaxRef:         input.SpiceWaxRef,
		Status:              domainrequest.StatusPending,
		SubmittedDate:       submittedDate,
		Initiator:           input.Initiator,
		RequestedBy:         requestedBy,
		DateRequested:       dateRequested,
		SystemName:          input.SystemName,
		PolicyFormComplete:  input.PolicyFormComplete,
		SopTrainingComplete: input.SopTrainingComplete,
		BriefDescription:    input.BriefDescription,
	}

	var created ports.ChangeRequest
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Insert(txCtx, record)
		return err
	}); err != nil {
		return ports.ChangeRequest{}, err
	}

	s.enqueueSyncCreate(ctx, created)
	s.enqueueNotification(ctx, created)

	return created, nil
}

// validateRequired checks the nine mandatory intake fields in a fixed order
// so the first missing one is always the one reported.
func validateRequired(input SubmitInput) error {
	values := map[string]string{
		"title":          input.Title,
		"requestorName":  input.RequestorName,
		"requestorEmail": input.RequestorEmail,
		"department":     input.Department,
		"summary":        input.Summary,
		"description":    input.Description,
		"changeType":     input.ChangeType,
		"priority":       input.Priority,
		"targetDate":     input.TargetDate,
	}

	for _, field := range domainrequest.RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			return domainrequest.MissingField(field)
		}
	}
	return nil
}

func notificationSubject(record ports.ChangeRequest) string {
	return fmt.Sprintf("New change request %s: %s", record.RequestID, record.Title)
}

func notificationBody(record ports.ChangeRequest) string {
	return fmt.Sprintf(
		"Change request %s submitted by %s (%s).\nStatus: %s\nPriority: %s\nTarget date: %s",
		record.RequestID,
		record.RequestorName,
		record.Department,
		record.Status,
		record.Priority,
		record.TargetDate,
	)
}
