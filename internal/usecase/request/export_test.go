package request

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportCSVHeaderAndEscaping(t *testing.T) {
	svc := setupService(t, Options{ExportBOM: true})
	ctx := context.Background()

	input := validSubmitInput()
	input.RequestID = "REQ-100001"
	input.Title = `He said "hi", then left`
	input.Summary = "line one\nline two"
	if _, err := svc.Submit(ctx, input); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	payload, err := svc.ExportCSV(ctx, Filter{})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	out := string(payload)
	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatalf("export does not start with a BOM")
	}

	lines := strings.SplitN(strings.TrimPrefix(out, "\ufeff"), "\n", 2)
	header := lines[0]
	if !strings.HasPrefix(header, `"requestId","title",`) {
		t.Fatalf("header = %q, want every column quoted", header)
	}
	if got, want := len(strings.Split(header, ",")), len(DefaultExportColumns); got != want {
		t.Fatalf("header has %d columns, want %d", got, want)
	}

	body := lines[1]
	if !strings.Contains(body, `"He said ""hi"", then left"`) {
		t.Fatalf("title not escaped: %q", body)
	}
	if !strings.Contains(body, "REQ-100001") {
		t.Fatalf("body missing plain requestId: %q", body)
	}
	// Unset optional fields serialize as a quoted empty string.
	if !strings.Contains(body, `,"",`) {
		t.Fatalf("empty fields not serialized as \"\": %q", body)
	}
	// Checkbox columns default to 0.
	if !strings.Contains(body, ",0,0,") {
		t.Fatalf("boolean columns not serialized as 0/1: %q", body)
	}
}

func TestExportCSVWithoutBOM(t *testing.T) {
	svc := setupService(t, Options{ExportBOM: false})

	payload, err := svc.ExportCSV(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if strings.HasPrefix(string(payload), "\ufeff") {
		t.Fatalf("export carries a BOM although disabled")
	}
}

func TestExportCSVEmptyStoreIsHeaderOnly(t *testing.T) {
	svc := setupService(t, Options{})

	payload, err := svc.ExportCSV(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("empty export has %d lines, want header only", len(lines))
	}
}

func TestExportCSVHonorsFilter(t *testing.T) {
	svc := setupService(t, Options{})
	ctx := context.Background()

	qa := validSubmitInput()
	qa.RequestID = "REQ-200001"
	it := validSubmitInput()
	it.RequestID = "REQ-200002"
	it.Department = "IT"
	if _, err := svc.Submit(ctx, qa); err != nil {
		t.Fatalf("Submit(qa) error = %v", err)
	}
	if _, err := svc.Submit(ctx, it); err != nil {
		t.Fatalf("Submit(it) error = %v", err)
	}

	payload, err := svc.ExportCSV(ctx, Filter{Department: "IT"})
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	out := string(payload)
	if strings.Contains(out, "REQ-200001") {
		t.Fatalf("filtered export contains excluded record")
	}
	if !strings.Contains(out, "REQ-200002") {
		t.Fatalf("filtered export missing matching record")
	}
}

func TestResolveExportColumnsLayoutFile(t *testing.T) {
	layoutPath := filepath.Join(t.TempDir(), "layout.toml")
	layout := "columns = [\"requestId\", \"status\", \"comments\"]\n"
	if err := os.WriteFile(layoutPath, []byte(layout), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	columns, err := resolveExportColumns(layoutPath)
	if err != nil {
		t.Fatalf("resolveExportColumns() error = %v", err)
	}
	if len(columns) != 3 || columns[0] != "requestId" || columns[2] != "comments" {
		t.Fatalf("columns = %v", columns)
	}
}

func TestResolveExportColumnsRejectsUnknown(t *testing.T) {
	layoutPath := filepath.Join(t.TempDir(), "layout.toml")
	if err := os.WriteFile(layoutPath, []byte("columns = [\"nope\"]\n"), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}

	if _, err := resolveExportColumns(layoutPath); err == nil {
		t.Fatalf("resolveExportColumns() accepted unknown column")
	}
}

func TestResolveExportColumnsDefault(t *testing.T) {
	columns, err := resolveExportColumns("")
	if err != nil {
		t.Fatalf("resolveExportColumns() error = %v", err)
	}
	if len(columns) != len(DefaultExportColumns) {
		t.Fatalf("default columns = %d, want %d", len(columns), len(DefaultExportColumns))
	}
}

func TestCSVFieldQuoting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", "plain"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
	}
	for _, tc := range cases {
		if got := csvField(tc.in); got != tc.want {
			t.Fatalf("csvField(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
