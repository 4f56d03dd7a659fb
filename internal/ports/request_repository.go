package ports

import (
	"context"
	"errors"
)

var (
	ErrRequestNotFound = errors.New("change request not found")
	ErrEmptyUpdate     = errors.New("empty partial update")
)

// ChangeRequest is the persisted record. ID is the surrogate insertion key;
// RequestID is the caller-facing identifier and never changes once created.
type ChangeRequest struct {
	ID                  uint64
	RequestID           string
	Title               string
	RequestorName       string
	RequestorEmail      string
	Department          string
	Summary             string
	Description         string
	ChangeType          string
	Priority            string
	TargetDate          string
	Documents           string
	SpiceWaxRef         string
	Status              string
	AssignedTo          string
	Reviewer            string
	SubmittedDate       string
	Comments            string
	Initiator           string
	RequestedBy         string
	DateRequested       string
	SystemName          string
	PolicyFormComplete  bool
	SopTrainingComplete bool
	BriefDescription    string
}

// RequestFilter is a conjunction; zero-valued fields are unconstrained.
// SubmittedFrom/SubmittedTo compare on the date part of submittedDate.
type RequestFilter struct {
	Status        string
	RequestedBy   string
	Department    string
	SubmittedFrom string
	SubmittedTo   string
}

type ColumnInfo struct {
	Name string
	Type string
}

type RequestReadRepository interface {
	// List returns matches most-recently-inserted first.
	List(ctx context.Context, filter RequestFilter) ([]ChangeRequest, error)
	GetByRequestID(ctx context.Context, requestID string) (ChangeRequest, error)
	Columns(ctx context.Context) ([]ColumnInfo, error)
}

type RequestRepository interface {
	RequestReadRepository
	Insert(ctx context.Context, record ChangeRequest) (ChangeRequest, error)
	// UpdateByRequestID writes only the given columns and returns the
	// affected row count; an unmatched requestID yields 0, not an error.
	// An empty field set fails with ErrEmptyUpdate.
	UpdateByRequestID(ctx context.Context, requestID string, fields map[string]any) (int64, error)
}
