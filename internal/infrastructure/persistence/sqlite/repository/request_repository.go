package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"changectl/internal/errs"
	"changectl/internal/infrastructure/persistence/sqlite/model"
	"changectl/internal/ports"
)

type RequestRepository struct {
	db *gorm.DB
}

var _ ports.RequestRepository = (*RequestRepository)(nil)

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *RequestRepository) Insert(ctx context.Context, record ports.ChangeRequest) (ports.ChangeRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ChangeRequest{}, err
	}

	row := fromPort(record)
	row.ID = 0
	if err := db.Create(&row).Error; err != nil {
		return ports.ChangeRequest{}, errs.Wrap(err, "insert request")
	}
	return toPort(row), nil
}

func (r *RequestRepository) List(ctx context.Context, filter ports.RequestFilter) ([]ports.ChangeRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Request{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if requestedBy := strings.TrimSpace(filter.RequestedBy); requestedBy != "" {
		query = query.Where("requested_by = ?", requestedBy)
	}
	if department := strings.TrimSpace(filter.Department); department != "" {
		query = query.Where("department = ?", department)
	}
	// ISO-8601 timestamps order lexicographically, so the YYYY-MM-DD prefix
	// gives date-granular bounds on both sqlite and postgres.
	if from := datePrefix(filter.SubmittedFrom); from != "" {
		query = query.Where("substr(submitted_date, 1, 10) >= ?", from)
	}
	if to := datePrefix(filter.SubmittedTo); to != "" {
		query = query.Where("substr(submitted_date, 1, 10) <= ?", to)
	}

	var rows []model.Request
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query requests")
	}

	items := make([]ports.ChangeRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, toPort(row))
	}
	return items, nil
}

func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (ports.ChangeRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ChangeRequest{}, err
	}

	var row model.Request
	if err := db.Where("request_id = ?", strings.TrimSpace(requestID)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ChangeRequest{}, ports.ErrRequestNotFound
		}
		return ports.ChangeRequest{}, errs.Wrap(err, "query request by request_id")
	}
	return toPort(row), nil
}

func (r *RequestRepository) UpdateByRequestID(ctx context.Context, requestID string, fields map[string]any) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, ports.ErrEmptyUpdate
	}

	result := db.Model(&model.Request{}).
		Where("request_id = ?", strings.TrimSpace(requestID)).
		Updates(fields)
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "update request")
	}
	return result.RowsAffected, nil
}

func (r *RequestRepository) Columns(ctx context.Context) ([]ports.ColumnInfo, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	columnTypes, err := db.Migrator().ColumnTypes(&model.Request{})
	if err != nil {
		return nil, errs.Wrap(err, "inspect request columns")
	}

	columns := make([]ports.ColumnInfo, 0, len(columnTypes))
	for _, ct := range columnTypes {
		columns = append(columns, ports.ColumnInfo{
			Name: ct.Name(),
			Type: ct.DatabaseTypeName(),
		})
	}
	return columns, nil
}

func datePrefix(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) > 10 {
		return trimmed[:10]
	}
	return trimmed
}

func fromPort(record ports.ChangeRequest) model.Request {
	return model.Request{
		ID:                  record.ID,
		RequestID:           record.RequestID,
		Title:               record.Title,
		RequestorName:       record.RequestorName,
		RequestorEmail:      record.RequestorEmail,
		Department:          record.Department,
		Summary:             record.Summary,
		Description:         record.Description,
		ChangeType:          record.ChangeType,
		Priority:            record.Priority,
		TargetDate:          record.TargetDate,
		Documents:           record.Documents,
		SpiceWaxRef:         record.SpiceWaxRef,
		Status:              record.Status,
		AssignedTo:          record.AssignedTo,
		Reviewer:            record.Reviewer,
		SubmittedDate:       record.SubmittedDate,
		Comments:            record.Comments,
		Initiator:           record.Initiator,
		RequestedBy:         record.RequestedBy,
		DateRequested:       record.DateRequested,
		SystemName:          record.SystemName,
		PolicyFormComplete:  record.PolicyFormComplete,
		SopTrainingComplete: record.SopTrainingComplete,
		BriefDescription:    record.BriefDescription,
	}
}

func toPort(row model.Request) ports.ChangeRequest {
	return ports.ChangeRequest{
		ID:                  row.ID,
		RequestID:           row.RequestID,
		Title:               row.Title,
		RequestorName:       row.RequestorName,
		RequestorEmail:      row.RequestorEmail,
		Department:          row.Department,
		Summary:             row.Summary,
		Description:         row.Description,
		ChangeType:          row.ChangeType,
		Priority:            row.Priority,
		TargetDate:          row.TargetDate,
		Documents:           row.Documents,
		SpiceWaxRef:         row.SpiceWaxRef,
		Status:              row.Status,
		AssignedTo:          row.AssignedTo,
		Reviewer:            row.Reviewer,
		SubmittedDate:       row.SubmittedDate,
		Comments:            row.Comments,
		Initiator:           row.Initiator,
		RequestedBy:         row.RequestedBy,
		DateRequested:       row.DateRequested,
		SystemName:          row.SystemName,
		PolicyFormComplete:  row.PolicyFormComplete,
		SopTrainingComplete: row.SopTrainingComplete,
		BriefDescription:    row.BriefDescription,
	}
}
