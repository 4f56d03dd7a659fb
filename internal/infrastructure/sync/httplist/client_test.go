package httplist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"changectl/internal/ports"
)

type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memoryKV) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv := newMemoryKV()
	client, err := New(Config{
		BaseURL:  server.URL,
		ListName: "ISV Change Requests",
		Token:    "test-token",
	}, kv)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client, kv
}

func TestCreateChangeRequestStoresMapping(t *testing.T) {
	var gotPath, gotAuth string
	var gotItem map[string]any

	client, kv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotItem)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"item-41"}`))
	}))

	remoteID, err := client.CreateChangeRequest(context.Background(), ports.ChangeRequest{
		RequestID: "REQ-123456",
		Title:     "Upgrade LIMS interface",
		Status:    "Pending",
	})
	if err != nil {
		t.Fatalf("CreateChangeRequest() error = %v", err)
	}
	if remoteID != "item-41" {
		t.Fatalf("remoteID = %q", remoteID)
	}

	if !strings.Contains(gotPath, "/lists/") || !strings.HasSuffix(gotPath, "/items") {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotItem["requestId"] != "REQ-123456" || gotItem["status"] != "Pending" {
		t.Fatalf("posted item = %v", gotItem)
	}

	if kv.data["remote_item:REQ-123456"] != "item-41" {
		t.Fatalf("mapping not stored: %v", kv.data)
	}
}

func TestUpdateChangeRequestUsesStoredMapping(t *testing.T) {
	var gotMethod, gotPath string
	var gotFields map[string]any

	client, kv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotFields)
		w.WriteHeader(http.StatusNoContent)
	}))
	kv.data["remote_item:REQ-123456"] = "item-41"

	err := client.UpdateChangeRequest(context.Background(), "REQ-123456", map[string]any{"status": "Implemented"})
	if err != nil {
		t.Fatalf("UpdateChangeRequest() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %q", gotMethod)
	}
	if !strings.HasSuffix(gotPath, "/items/item-41") {
		t.Fatalf("path = %q", gotPath)
	}
	if gotFields["status"] != "Implemented" {
		t.Fatalf("fields = %v", gotFields)
	}
}

func TestUpdateChangeRequestWithoutMappingFails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("unexpected remote call without mapping")
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.UpdateChangeRequest(context.Background(), "REQ-999999", map[string]any{"status": "Rejected"})
	if err == nil || !strings.Contains(err.Error(), "no remote item mapping") {
		t.Fatalf("UpdateChangeRequest() error = %v", err)
	}
}

func TestRemoteErrorIncludesBodySnippet(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("list backend offline"))
	}))

	_, err := client.CreateChangeRequest(context.Background(), ports.ChangeRequest{RequestID: "REQ-1"})
	if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "list backend offline") {
		t.Fatalf("CreateChangeRequest() error = %v", err)
	}
}

func TestGetChangeRequests(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"requestId":"REQ-1","title":"one"},{"requestId":"REQ-2","title":"two"}]`))
	}))

	records, err := client.GetChangeRequests(context.Background())
	if err != nil {
		t.Fatalf("GetChangeRequests() error = %v", err)
	}
	if len(records) != 2 || records[0].RequestID != "REQ-1" || records[1].Title != "two" {
		t.Fatalf("records = %v", records)
	}
}
