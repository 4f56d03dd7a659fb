package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"changectl/internal/infrastructure/persistence/schema"
	"changectl/internal/ports"
)

func setupRequestRepository(t *testing.T) *RequestRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "requests.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := schema.Apply(context.Background(), db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewRequestRepository(db)
}

func seedRequest(t *testing.T, repo *RequestRepository, requestID string, mutate func(*ports.ChangeRequest)) ports.ChangeRequest {
	t.Helper()

	record := ports.ChangeRequest{
		RequestID:      requestID,
		Title:          "seed " + requestID,
		RequestorName:  "Sam Ortiz",
		RequestorEmail: "sam.ortiz@example.com",
		Department:     "QA",
		Summary:        "summary",
		Description:    "description",
		ChangeType:     "Process",
		Priority:       "Medium",
		TargetDate:     "2026-09-30",
		Status:         "Pending",
		SubmittedDate:  "2026-03-15T10:00:00Z",
		RequestedBy:    "Sam Ortiz",
		DateRequested:  "2026-03-15T10:00:00Z",
	}
	if mutate != nil {
		mutate(&record)
	}

	created, err := repo.Insert(context.Background(), record)
	if err != nil {
		t.Fatalf("Insert(%s) error = %v", requestID, err)
	}
	return created
}

func TestInsertAssignsRowID(t *testing.T) {
	repo := setupRequestRepository(t)

	first := seedRequest(t, repo, "REQ-300001", nil)
	second := seedRequest(t, repo, "REQ-300002", nil)

	if first.ID == 0 || second.ID == 0 {
		t.Fatalf("row ids not assigned: %d, %d", first.ID, second.ID)
	}
	if second.ID <= first.ID {
		t.Fatalf("row ids not increasing: %d then %d", first.ID, second.ID)
	}
}

func TestInsertDuplicateRequestIDFails(t *testing.T) {
	repo := setupRequestRepository(t)

	seedRequest(t, repo, "REQ-300010", nil)
	if _, err := repo.Insert(context.Background(), ports.ChangeRequest{
		RequestID:     "REQ-300010",
		Title:         "dup",
		SubmittedDate: "2026-03-16T10:00:00Z",
	}); err == nil {
		t.Fatalf("Insert() accepted a duplicate request_id")
	}
}

func TestListFiltersAreConjunctive(t *testing.T) {
	repo := setupRequestRepository(t)
	ctx := context.Background()

	seedRequest(t, repo, "REQ-300101", func(r *ports.ChangeRequest) {
		r.Status = "Pending"
		r.Department = "QA"
		r.SubmittedDate = "2026-01-05T08:00:00Z"
	})
	seedRequest(t, repo, "REQ-300102", func(r *ports.ChangeRequest) {
		r.Status = "Implemented"
		r.Department = "QA"
		r.SubmittedDate = "2026-02-05T08:00:00Z"
	})
	seedRequest(t, repo, "REQ-300103", func(r *ports.ChangeRequest) {
		r.Status = "Pending"
		r.Department = "IT"
		r.RequestedBy = "Noor Haddad"
		r.SubmittedDate = "2026-03-05T08:00:00Z"
	})

	got, err := repo.List(ctx, ports.RequestFilter{Status: "Pending", Department: "QA"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].RequestID != "REQ-300101" {
		t.Fatalf("List(status+department) = %v", got)
	}

	got, err = repo.List(ctx, ports.RequestFilter{RequestedBy: "Noor Haddad"})
	if err != nil {
		t.Fatalf("List(requestedBy) error = %v", err)
	}
	if len(got) != 1 || got[0].RequestID != "REQ-300103" {
		t.Fatalf("List(requestedBy) = %v", got)
	}

	got, err = repo.List(ctx, ports.RequestFilter{SubmittedFrom: "2026-02-01", SubmittedTo: "2026-02-28"})
	if err != nil {
		t.Fatalf("List(window) error = %v", err)
	}
	if len(got) != 1 || got[0].RequestID != "REQ-300102" {
		t.Fatalf("List(date window) = %v", got)
	}

	// Bounds are inclusive at date granularity.
	got, err = repo.List(ctx, ports.RequestFilter{SubmittedFrom: "2026-01-05", SubmittedTo: "2026-01-05"})
	if err != nil {
		t.Fatalf("List(single day) error = %v", err)
	}
	if len(got) != 1 || got[0].RequestID != "REQ-300101" {
		t.Fatalf("List(single day) = %v", got)
	}
}

func TestListOrdersByRowIDDescending(t *testing.T) {
	repo := setupRequestRepository(t)

	seedRequest(t, repo, "REQ-300201", nil)
	seedRequest(t, repo, "REQ-300202", nil)
	seedRequest(t, repo, "REQ-300203", nil)

	got, err := repo.List(context.Background(), ports.RequestFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID >= got[i-1].ID {
			t.Fatalf("List() not in descending id order: %v", got)
		}
	}
}

func TestGetByRequestIDNotFound(t *testing.T) {
	repo := setupRequestRepository(t)

	_, err := repo.GetByRequestID(context.Background(), "REQ-000000")
	if !errors.Is(err, ports.ErrRequestNotFound) {
		t.Fatalf("GetByRequestID() error = %v, want ErrRequestNotFound", err)
	}
}

func TestUpdateByRequestID(t *testing.T) {
	repo := setupRequestRepository(t)
	ctx := context.Background()

	created := seedRequest(t, repo, "REQ-300301", nil)

	affected, err := repo.UpdateByRequestID(ctx, created.RequestID, map[string]any{
		"status":                "Rejected",
		"comments":              "missing SOP evidence",
		"policy_form_complete":  true,
		"sop_training_complete": true,
	})
	if err != nil {
		t.Fatalf("UpdateByRequestID() error = %v", err)
	}
	if affected != 1 {
		t.Fatalf("UpdateByRequestID() affected = %d, want 1", affected)
	}

	got, err := repo.GetByRequestID(ctx, created.RequestID)
	if err != nil {
		t.Fatalf("GetByRequestID() error = %v", err)
	}
	if got.Status != "Rejected" || got.Comments != "missing SOP evidence" {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.PolicyFormComplete || !got.SopTrainingComplete {
		t.Fatalf("boolean columns not applied: %+v", got)
	}

	affected, err = repo.UpdateByRequestID(ctx, "REQ-000000", map[string]any{"comments": "x"})
	if err != nil {
		t.Fatalf("UpdateByRequestID(missing) error = %v", err)
	}
	if affected != 0 {
		t.Fatalf("UpdateByRequestID(missing) affected = %d, want 0", affected)
	}

	if _, err := repo.UpdateByRequestID(ctx, created.RequestID, map[string]any{}); !errors.Is(err, ports.ErrEmptyUpdate) {
		t.Fatalf("UpdateByRequestID(empty) error = %v, want ErrEmptyUpdate", err)
	}
}

func TestColumnsReportsLiveSchema(t *testing.T) {
	repo := setupRequestRepository(t)

	columns, err := repo.Columns(context.Background())
	if err != nil {
		t.Fatalf("Columns() error = %v", err)
	}

	names := make(map[string]bool, len(columns))
	for _, column := range columns {
		names[column.Name] = true
	}
	for _, want := range []string{"id", "request_id", "status", "submitted_date", "policy_form_complete", "brief_description"} {
		if !names[want] {
			t.Fatalf("Columns() missing %q: %v", want, columns)
		}
	}
}
