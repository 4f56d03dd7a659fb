package request

import (
	"errors"
	"testing"
	"time"
)

func TestNewRequestIDShape(t *testing.T) {
	now := time.UnixMilli(1756600000123)

	got := NewRequestID(now)
	if got != "REQ-000123" {
		t.Fatalf("NewRequestID() = %q, want REQ-000123", got)
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range Statuses {
		if !ValidStatus(status) {
			t.Fatalf("ValidStatus(%q) = false", status)
		}
	}

	for _, status := range []string{"", "pending", "Done", "Archived", " Pending"} {
		if ValidStatus(status) {
			t.Fatalf("ValidStatus(%q) = true", status)
		}
	}
}

func TestIsUpdatable(t *testing.T) {
	for _, field := range []string{"status", "assignedTo", "comments", "reviewer", "initiator", "requestedBy", "dateRequested", "systemName", "policyFormComplete", "sopTrainingComplete"} {
		if !IsUpdatable(field) {
			t.Fatalf("IsUpdatable(%q) = false", field)
		}
	}

	for _, field := range []string{"title", "requestId", "submittedDate", "description", ""} {
		if IsUpdatable(field) {
			t.Fatalf("IsUpdatable(%q) = true", field)
		}
	}
}

func TestValidationErrorMessages(t *testing.T) {
	err := MissingField("title")
	if err.Error() != "title: is required" {
		t.Fatalf("MissingField() = %q", err.Error())
	}
	if !IsValidation(err) {
		t.Fatalf("MissingField() not recognized as validation error")
	}

	wrapped := errors.Join(errors.New("outer"), ErrEmptyUpdate)
	if !IsValidation(wrapped) {
		t.Fatalf("wrapped ErrEmptyUpdate not recognized as validation error")
	}

	if IsValidation(errors.New("plain")) {
		t.Fatalf("plain error recognized as validation error")
	}
}
