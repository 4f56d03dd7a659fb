package request

import (
	"errors"
	"time"

	"changectl/internal/ports"
)

// Service drives the change-request lifecycle: validated intake,
// administrative updates, filtered reads and CSV export. It holds no record
// state across calls; the repository is the source of truth. Sync and
// notification collaborators are optional and strictly best-effort.
type Service struct {
	repo     ports.RequestRepository
	uow      ports.UnitOfWork
	sync     ports.DirectorySync
	notifier ports.Notifier

	dispatcher      *dispatcher
	notifyRecipient string

	exportColumns []string
	exportBOM     bool
}

type Options struct {
	Sync            ports.DirectorySync
	Notifier        ports.Notifier
	NotifyRecipient string

	SideEffectQueueSize int
	SideEffectTimeout   time.Duration

	ExportBOM        bool
	ExportLayoutFile string
}

// NewService wires the lifecycle usecases. The export column layout is
// resolved once, at construction, so a bad layout file fails startup
// instead of the first export.
func NewService(repo ports.RequestRepository, uow ports.UnitOfWork, opts Options) (*Service, error) {
	if repo == nil {
		return nil, errors.New("request repository is required")
	}
	if uow == nil {
		return nil, errors.New("unit of work is required")
	}

	columns, err := resolveExportColumns(opts.ExportLayoutFile)
	if err != nil {
		return nil, err
	}

	queueSize := opts.SideEffectQueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	timeout := opts.SideEffectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Service{
		repo:            repo,
		uow:             uow,
		sync:            opts.Sync,
		notifier:        opts.Notifier,
		dispatcher:      newDispatcher(queueSize, timeout),
		notifyRecipient: opts.NotifyRecipient,
		exportColumns:   columns,
		exportBOM:       opts.ExportBOM,
	}, nil
}

// Close drains the side-effect queue. Pending tasks still run; new ones are
// rejected.
func (s *Service) Close() {
	s.dispatcher.close()
}

// SubmitInput carries the raw intake form fields. RequestID and
// SubmittedDate are honored when the caller supplies them, otherwise the
// service derives both.
type SubmitInput struct {
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
	SubmittedDate       string
	Initiator           string
	RequestedBy         string
	DateRequested       string
	SystemName          string
	PolicyFormComplete  bool
	SopTrainingComplete bool
	BriefDescription    string
}

// UpdateInput carries the administrative update payload. Fields is keyed by
// API field name; anything outside the allow-list is silently ignored.
type UpdateInput struct {
	RequestID string
	Fields    map[string]any
}

// Filter narrows reads and exports; zero-valued members are unconstrained.
type Filter struct {
	Status        string
	RequestedBy   string
	Department    string
	SubmittedFrom string
	SubmittedTo   string
}

func (f Filter) toPort() ports.RequestFilter {
	return ports.RequestFilter{
		Status:        f.Status,
		RequestedBy:   f.RequestedBy,
		Department:    f.Department,
		SubmittedFrom: f.SubmittedFrom,
		SubmittedTo:   f.SubmittedTo,
	}
}
