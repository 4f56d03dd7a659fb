package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"changectl/internal/errs"
	"changectl/internal/ports"
)

// DefaultExportColumns is the audit CSV layout: fixed and explicit, never
// derived from whatever fields a record happens to have, so column order
// stays stable as the schema grows.
var DefaultExportColumns = []string{
	"requestId",
	"title",
	"requestorName",
	"requestorEmail",
	"department",
	"status",
	"priority",
	"submittedDate",
	"dateRequested",
	"requestedBy",
	"initiator",
	"targetDate",
	"assignedTo",
	"documents",
	"spiceWaxRef",
	"policyFormComplete",
	"sopTrainingComplete",
	"briefDescription",
	"description",
	"changeType",
	"reviewer",
	"systemName",
}

type exportLayout struct {
	Columns []string `toml:"columns"`
}

func resolveExportColumns(layoutFile string) ([]string, error) {
	path := strings.TrimSpace(layoutFile)
	if path == "" {
		return append([]string(nil), DefaultExportColumns...), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read export layout %q", path)
	}

	var layout exportLayout
	if err := toml.Unmarshal(raw, &layout); err != nil {
		return nil, errs.Wrapf(err, "parse export layout %q", path)
	}
	if len(layout.Columns) == 0 {
		return nil, errors.New("export layout has no columns")
	}

	columns := make([]string, 0, len(layout.Columns))
	for _, raw := range layout.Columns {
		column := strings.TrimSpace(raw)
		if column == "" {
			continue
		}
		if _, ok := exportExtractors[column]; !ok {
			return nil, fmt.Errorf("unknown export column %q", column)
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return nil, errors.New("export layout has no columns")
	}
	return columns, nil
}

// ExportCSV serializes the filtered record set: optional UTF-8 BOM, quoted
// header, then one line per record in list order. Plain values stay
// unquoted; values holding commas, quotes or line breaks are double-quoted
// with inner quotes doubled; empty values serialize as "".
func (s *Service) ExportCSV(ctx context.Context, filter Filter) ([]byte, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if s.exportBOM {
		buf.WriteString("\ufeff")
	}

	for i, column := range s.exportColumns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(quoteAlways(column))
	}
	buf.WriteByte('\n')

	for _, record := range records {
		for i, column := range s.exportColumns {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(csvField(exportExtractors[column](record)))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ExportColumns returns the resolved layout (for the export command's
// confirmation output).
func (s *Service) ExportColumns() []string {
	return append([]string(nil), s.exportColumns...)
}

func csvField(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, ",\"\r\n") {
		return quoteAlways(value)
	}
	return value
}

func quoteAlways(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// exportExtractors covers every exportable field; the layout file may pick
// any subset in any order.
var exportExtractors = map[string]func(ports.ChangeRequest) string{
	"requestId":           func(r ports.ChangeRequest) string { return r.RequestID },
	"title":               func(r ports.ChangeRequest) string { return r.Title },
	"requestorName":       func(r ports.ChangeRequest) string { return r.RequestorName },
	"requestorEmail":      func(r ports.ChangeRequest) string { return r.RequestorEmail },
	"department":          func(r ports.ChangeRequest) string { return r.Department },
	"summary":             func(r ports.ChangeRequest) string { return r.Summary },
	"description":         func(r ports.ChangeRequest) string { return r.Description },
	"changeType":          func(r ports.ChangeRequest) string { return r.ChangeType },
	"priority":            func(r ports.ChangeRequest) string { return r.Priority },
	"targetDate":          func(r ports.ChangeRequest) string { return r.TargetDate },
	"documents":           func(r ports.ChangeRequest) string { return r.Documents },
	"spiceWaxRef":         func(r ports.ChangeRequest) string { return r.SpiceWaxRef },
	"status":              func(r ports.ChangeRequest) string { return r.Status },
	"assignedTo":          func(r ports.ChangeRequest) string { return r.AssignedTo },
	"reviewer":            func(r ports.ChangeRequest) string { return r.Reviewer },
	"submittedDate":       func(r ports.ChangeRequest) string { return r.SubmittedDate },
	"comments":            func(r ports.ChangeRequest) string { return r.Comments },
	"initiator":           func(r ports.ChangeRequest) string { return r.Initiator },
	"requestedBy":         func(r ports.ChangeRequest) string { return r.RequestedBy },
	"dateRequested":       func(r ports.ChangeRequest) string { return r.DateRequested },
	"systemName":          func(r ports.ChangeRequest) string { return r.SystemName },
	"policyFormComplete":  func(r ports.ChangeRequest) string { return boolFlag(r.PolicyFormComplete) },
	"sopTrainingComplete": func(r ports.ChangeRequest) string { return boolFlag(r.SopTrainingComplete) },
	"briefDescription":    func(r ports.ChangeRequest) string { return r.BriefDescription },
}
