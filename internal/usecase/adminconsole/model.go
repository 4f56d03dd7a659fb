package adminconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"changectl/internal/bootstrap/logging"
	domainrequest "changectl/internal/domain/request"
	"changectl/internal/ports"
	"changectl/internal/usecase/request"
)

const maxAuditLines = 8

type Options struct {
	StatusFilter    string
	Department      string
	RefreshInterval time.Duration
}

type model struct {
	ctx             context.Context
	service         *request.Service
	statusFilter    string
	department      string
	refreshInterval time.Duration

	records       []ports.ChangeRequest
	selectedIndex int
	detail        ports.ChangeRequest
	hasDetail     bool
	status        string
	auditLogs     []string
}

type recordsLoadedMsg struct {
	items []ports.ChangeRequest
	err   error
}

type detailLoadedMsg struct {
	requestID string
	record    ports.ChangeRequest
	err       error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action    string
	requestID string
	result    string
	err       error
}

func NewModel(ctx context.Context, service *request.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &model{
		ctx:             ctx,
		service:         service,
		statusFilter:    strings.TrimSpace(options.StatusFilter),
		department:      strings.TrimSpace(options.Department),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.loadRecordsCmd(), m.tickCmd())
}

func (m *model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadRecordsCmd(), m.tickCmd())
	case recordsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.records = msg.items
		if len(m.records) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "queue is empty"
			return m, nil
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		if m.selectedIndex >= len(m.records) {
			m.selectedIndex = len(m.records) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d requests", len(m.records))
		return m, m.loadSelectedDetailCmd()
	case detailLoadedMsg:
		if !m.isCurrentSelection(msg.requestID) {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail load failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.record
		m.hasDetail = true
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendAuditLog(msg.action, msg.requestID, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendAuditLog(msg.action, msg.requestID, msg.result, nil)
		}
		return m, m.loadRecordsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadRecordsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.records)-1 {
				m.selectedIndex++
				return m, m.loadSelectedDetailCmd()
			}
			return m, nil
		case "p":
			return m, m.setStatusCmd(domainrequest.StatusPending)
		case "r":
			return m, m.setStatusCmd(domainrequest.StatusRejected)
		case "i":
			return m, m.setStatusCmd(domainrequest.StatusImplemented)
		}
	}
	return m, nil
}

func (m *model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Change Request Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"status=%s department=%s refresh=%s",
		firstNonEmpty(m.statusFilter, "all"),
		firstNonEmpty(m.department, "-"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.records) == 0 {
		builder.WriteString(dimStyle.Render("- no requests"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.records {
			line := fmt.Sprintf(
				"%s [%s] %s dept=%s by=%s",
				item.RequestID,
				item.Status,
				item.Title,
				firstNonEmpty(item.Department, "-"),
				firstNonEmpty(item.RequestorName, "-"),
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("RequestID: %s\n", m.detail.RequestID))
		builder.WriteString(fmt.Sprintf("Title: %s\n", m.detail.Title))
		builder.WriteString(fmt.Sprintf("Status: %s\n", m.detail.Status))
		builder.WriteString(fmt.Sprintf("Priority: %s\n", m.detail.Priority))
		builder.WriteString(fmt.Sprintf("Requestor: %s <%s>\n", m.detail.RequestorName, m.detail.RequestorEmail))
		builder.WriteString(fmt.Sprintf("Department: %s\n", firstNonEmpty(m.detail.Department, "-")))
		builder.WriteString(fmt.Sprintf("ChangeType: %s\n", firstNonEmpty(m.detail.ChangeType, "-")))
		builder.WriteString(fmt.Sprintf("Submitted: %s\n", firstNonEmpty(m.detail.SubmittedDate, "-")))
		builder.WriteString(fmt.Sprintf("Target: %s\n", firstNonEmpty(m.detail.TargetDate, "-")))
		builder.WriteString(fmt.Sprintf("AssignedTo: %s\n", firstNonEmpty(m.detail.AssignedTo, "-")))
		builder.WriteString(fmt.Sprintf("Reviewer: %s\n", firstNonEmpty(m.detail.Reviewer, "-")))
		builder.WriteString(fmt.Sprintf("Summary: %s\n", firstNonEmptyLine(m.detail.Summary)))
		if strings.TrimSpace(m.detail.Comments) != "" {
			builder.WriteString(fmt.Sprintf("Comments: %s\n", firstNonEmptyLine(m.detail.Comments)))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Actions"))
	builder.WriteString("\n")
	builder.WriteString("- p mark Pending\n")
	builder.WriteString("- r mark Rejected\n")
	builder.WriteString("- i mark Implemented\n")
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  p/r/i status  q quit"))
	return builder.String()
}

func (m *model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *model) loadRecordsCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.service.List(m.ctx, request.Filter{
			Status:     m.statusFilter,
			Department: m.department,
		})
		if err != nil {
			return recordsLoadedMsg{err: err}
		}
		return recordsLoadedMsg{items: items}
	}
}

func (m *model) loadSelectedDetailCmd() tea.Cmd {
	selected, ok := m.selectedRecord()
	if !ok {
		return nil
	}

	return func() tea.Msg {
		record, err := m.service.Get(m.ctx, selected.RequestID)
		if err != nil {
			return detailLoadedMsg{requestID: selected.RequestID, err: err}
		}
		return detailLoadedMsg{requestID: selected.RequestID, record: record}
	}
}

func (m *model) setStatusCmd(status string) tea.Cmd {
	selected, ok := m.selectedRecord()
	if !ok {
		m.status = "no request selected"
		return nil
	}
	if selected.Status == status {
		m.status = "already " + status
		return nil
	}
	m.status = "setting status " + status

	return func() tea.Msg {
		affected, err := m.service.Update(m.ctx, request.UpdateInput{
			RequestID: selected.RequestID,
			Fields:    map[string]any{"status": status},
		})
		if err != nil {
			return actionDoneMsg{action: "set-status", requestID: selected.RequestID, err: err}
		}
		if affected == 0 {
			return actionDoneMsg{action: "set-status", requestID: selected.RequestID, result: "no rows affected"}
		}
		return actionDoneMsg{action: "set-status", requestID: selected.RequestID, result: status}
	}
}

func (m *model) selectedRecord() (ports.ChangeRequest, bool) {
	if len(m.records) == 0 {
		return ports.ChangeRequest{}, false
	}
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.records) {
		return ports.ChangeRequest{}, false
	}
	return m.records[m.selectedIndex], true
}

func (m *model) isCurrentSelection(requestID string) bool {
	selected, ok := m.selectedRecord()
	if !ok {
		return false
	}
	return strings.TrimSpace(selected.RequestID) == strings.TrimSpace(requestID)
}

func (m *model) appendAuditLog(action string, requestID string, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s request=%s action=%s result=%s", timestamp, requestID, action, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(m.ctx, "console action",
		slog.String("time", timestamp),
		slog.String("request_id", requestID),
		slog.String("action", action),
		slog.String("result", outcome),
	)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}

func firstNonEmptyLine(body string) string {
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			return line
		}
	}
	return "-"
}
