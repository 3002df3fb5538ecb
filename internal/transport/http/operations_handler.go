package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "gapminder/internal/errors"
	custommw "gapminder/internal/middleware"
	"gapminder/internal/operations"
	"gapminder/pkg/contracts/domain"
)

// DefaultRunsLimit bounds GET /runs when no limit is given.
const DefaultRunsLimit = 20

// RunsQuery holds the run history query parameters.
type RunsQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

// OperationsHandler triggers pipeline runs and lists their history
type OperationsHandler struct {
	service      OperationServiceInterface
	validator    *custommw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service OperationServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service:      service,
		validator:    custommw.NewValidator(),
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
	}
}

// Routes returns the run routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.TriggerRun)
	r.Get("/", h.ListRuns)
	r.Get("/status", h.Status)

	return r
}

// TriggerRun handles POST /api/v1/runs. The run executes synchronously and
// the response carries its report. The run is detached from the request so a
// client disconnect does not cancel it.
func (h *OperationsHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "run requested", slog.String("request_id", reqID))

	report, err := h.service.Trigger(context.WithoutCancel(r.Context()))
	if err != nil {
		h.handleRunError(w, r, report, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// ListRuns handles GET /api/v1/runs
func (h *OperationsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := RunsQuery{Limit: DefaultRunsLimit}
	if err := h.validator.BindQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	runs, err := h.service.Runs(r.Context(), q.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  len(runs),
		"data":   runs,
	})
}

// Status handles GET /api/v1/runs/status. "run" holds the step states of
// the active run, or of the last one, and is absent before the first run.
func (h *OperationsHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"running": h.service.Running(),
	}
	if progress, ok := h.service.Progress(); ok {
		resp["run"] = progress
	}
	render.JSON(w, r, resp)
}

// handleRunError maps a failed run to an API error. Source failures are the
// caller's data problem (422); sink failures are ours (500).
func (h *OperationsHandler) handleRunError(w http.ResponseWriter, r *http.Request, report *operations.RunReport, err error) {
	switch {
	case errors.Is(err, operations.ErrRunInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrRunInProgress)
	case report != nil && len(report.Failures) > 0:
		h.errorHandler.HandleError(w, r, apierrors.ErrSourceRejected.WithDetails(report.Failures))
	case report != nil && len(report.SinkFailures) > 0:
		h.errorHandler.HandleError(w, r, apierrors.ErrPipelineFailed.WithDetails(report.SinkFailures))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
