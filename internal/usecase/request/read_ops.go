package request

import (
	"context"
	"errors"
	"strings"

	"changectl/internal/errs"
	"changectl/internal/ports"
)

// List returns matching records, most recently inserted first. An empty
// result is a normal outcome, never an error.
func (s *Service) List(ctx context.Context, filter Filter) ([]ports.ChangeRequest, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	records, err := s.repo.List(ctx, filter.toPort())
	if err != nil {
		return nil, errs.Wrap(err, "list requests")
	}
	return records, nil
}

// Get reads a single record by its request identifier.
func (s *Service) Get(ctx context.Context, requestID string) (ports.ChangeRequest, error) {
	if ctx == nil {
		return ports.ChangeRequest{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.ChangeRequest{}, errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(requestID) == "" {
		return ports.ChangeRequest{}, errors.New("request id is required")
	}

	record, err := s.repo.GetByRequestID(ctx, requestID)
	if err != nil {
		return ports.ChangeRequest{}, err
	}
	return record, nil
}

// Columns reports the live store schema for the introspection endpoint.
func (s *Service) Columns(ctx context.Context) ([]ports.ColumnInfo, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	columns, err := s.repo.Columns(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "inspect columns")
	}
	return columns, nil
}
