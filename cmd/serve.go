package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"changectl/internal/bootstrap"
	"changectl/internal/bootstrap/logging"
	domainrequest "changectl/internal/domain/request"
	"changectl/internal/errs"
	"changectl/internal/ports"
	"changectl/internal/usecase/request"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the change request HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *request.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		server := &http.Server{
			Addr:    addr,
			Handler: newAPIHandler(svc),
		}

		logging.Info(ctx, "api server started", slog.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "api server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve api")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr from config)")
}

// requestAPIService is the slice of the lifecycle service the HTTP handlers
// need; tests substitute a stub.
type requestAPIService interface {
	Submit(ctx context.Context, input request.SubmitInput) (ports.ChangeRequest, error)
	List(ctx context.Context, filter request.Filter) ([]ports.ChangeRequest, error)
	Update(ctx context.Context, input request.UpdateInput) (int64, error)
	ExportCSV(ctx context.Context, filter request.Filter) ([]byte, error)
	Columns(ctx context.Context) ([]ports.ColumnInfo, error)
}

type apiHandler struct {
	svc requestAPIService
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

type updateResponse struct {
	Changes int64 `json:"changes"`
}

func newAPIHandler(svc requestAPIService) http.Handler {
	h := &apiHandler{svc: svc}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Post("/api/requests", h.handleSubmit)
	router.Get("/api/requests", h.handleList)
	router.Put("/api/requests/{requestId}", h.handleUpdate)
	router.Get("/api/export", h.handleExport)
	router.Get("/api/schema", h.handleSchema)
	return router
}

type submitPayload struct {
	RequestID           string `json:"requestId"`
	Title               string `json:"title"`
	RequestorName       string `json:"requestorName"`
	RequestorEmail      string `json:"requestorEmail"`
	Department          string `json:"department"`
	Summary             string `json:"summary"`
	Description         string `json:"description"`
	ChangeType          string `json:"changeType"`
	Priority            string `json:"priority"`
	TargetDate          string `json:"targetDate"`
	Documents           string `json:"documents"`
	SpiceWaxRef         string `json:"spiceWaxRef"`
	SubmittedDate       string `json:"submittedDate"`
	Initiator           string `json:"initiator"`
	RequestedBy         string `json:"requestedBy"`
	DateRequested       string `json:"dateRequested"`
	SystemName          string `json:"systemName"`
	PolicyFormComplete  bool   `json:"policyFormComplete"`
	SopTrainingComplete bool   `json:"sopTrainingComplete"`
	BriefDescription    string `json:"briefDescription"`
}

type recordResponse struct {
	ID                  uint64 `json:"id"`
	RequestID           string `json:"requestId"`
	Title               string `json:"title"`
	RequestorName       string `json:"requestorName"`
	RequestorEmail      string `json:"requestorEmail"`
	Department          string `json:"department"`
	Summary             string `json:"summary"`
	Description         string `json:"description"`
	ChangeType          string `json:"changeType"`
	Priority            string `json:"priority"`
	TargetDate          string `json:"targetDate"`
	Documents           string `json:"documents"`
	SpiceWaxRef         string `json:"spiceWaxRef"`
	Status              string `json:"status"`
	AssignedTo          string `json:"assignedTo"`
	Reviewer            string `json:"reviewer"`
	SubmittedDate       string `json:"submittedDate"`
	Comments            string `json:"comments"`
	Initiator           string `json:"initiator"`
	RequestedBy         string `json:"requestedBy"`
	DateRequested       string `json:"dateRequested"`
	SystemName          string `json:"systemName"`
	PolicyFormComplete  bool   `json:"policyFormComplete"`
	SopTrainingComplete bool   `json:"sopTrainingComplete"`
	BriefDescription    string `json:"briefDescription"`
}

func toRecordResponse(record ports.ChangeRequest) recordResponse {
	return recordResponse{
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

func (h *apiHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid json payload")
		return
	}

	created, err := h.svc.Submit(r.Context(), request.SubmitInput{
		RequestID:           payload.RequestID,
		Title:               payload.Title,
		RequestorName:       payload.RequestorName,
		RequestorEmail:      payload.RequestorEmail,
		Department:          payload.Department,
		Summary:             payload.Summary,
		Description:         payload.Description,
		ChangeType:          payload.ChangeType,
		Priority:            payload.Priority,
		TargetDate:          payload.TargetDate,
		Documents:           payload.Documents,
		SpiceWaxRef:         payload.SpiceWaxRef,
		SubmittedDate:       payload.SubmittedDate,
		Initiator:           payload.Initiator,
		RequestedBy:         payload.RequestedBy,
		DateRequested:       payload.DateRequested,
		SystemName:          payload.SystemName,
		PolicyFormComplete:  payload.PolicyFormComplete,
		SopTrainingComplete: payload.SopTrainingComplete,
		BriefDescription:    payload.BriefDescription,
	})
	if err != nil {
		writeAPIServiceError(w, err)
		return
	}

	writeAPIJSON(w, http.StatusOK, toRecordResponse(created))
}

func (h *apiHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context(), filterFromQuery(r))
	if err != nil {
		writeAPIServiceError(w, err)
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid json payload")
		return
	}

	affected, err := h.svc.Update(r.Context(), request.UpdateInput{
		RequestID: requestID,
		Fields:    fields,
	})
	if err != nil {
		writeAPIServiceError(w, err)
		return
	}

	writeAPIJSON(w, http.StatusOK, updateResponse{Changes: affected})
}

func (h *apiHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	filter.RequestedBy = ""

	payload, err := h.svc.ExportCSV(r.Context(), filter)
	if err != nil {
		writeAPIServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="isv-change-requests.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *apiHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	columns, err := h.svc.Columns(r.Context())
	if err != nil {
		writeAPIServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, columns)
}

func filterFromQuery(r *http.Request) request.Filter {
	query := r.URL.Query()
	return request.Filter{
		Status:        strings.TrimSpace(query.Get("status")),
		RequestedBy:   strings.TrimSpace(query.Get("requestedBy")),
		Department:    strings.TrimSpace(query.Get("department")),
		SubmittedFrom: strings.TrimSpace(query.Get("from")),
		SubmittedTo:   strings.TrimSpace(query.Get("to")),
	}
}

func writeAPIServiceError(w http.ResponseWriter, err error) {
	if domainrequest.IsValidation(err) {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, ports.ErrRequestNotFound) {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeAPIError(w, http.StatusInternalServerError, err.Error())
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
