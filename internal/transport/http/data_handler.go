package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "gapminder/internal/errors"
	"gapminder/internal/exporter"
	custommw "gapminder/internal/middleware"
	"gapminder/internal/services"
	"gapminder/pkg/contracts/domain"
)

// CanonicalQuery holds the canonical table query parameters.
type CanonicalQuery struct {
	Country  string `query:"country" validate:"omitempty,max=100"`
	YearFrom *int   `query:"year_from" validate:"omitempty,gte=1000,lte=9999"`
	YearTo   *int   `query:"year_to" validate:"omitempty,gte=1000,lte=9999"`
}

// Filter converts the query into a service filter.
func (q CanonicalQuery) Filter() services.CanonicalFilter {
	return services.CanonicalFilter{Country: q.Country, YearFrom: q.YearFrom, YearTo: q.YearTo}
}

// CanonicalResponse is the JSON body of GET /canonical. Data is never null.
type CanonicalResponse struct {
	Status  string                `json:"status"`
	Count   int                   `json:"count"`
	Columns []string              `json:"columns"`
	Data    []domain.CanonicalRow `json:"data"`
}

// DataHandler handles canonical table requests with RFC 7807 errors
type DataHandler struct {
	service      DataServiceInterface
	validator    *custommw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		validator:    custommw.NewValidator(),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/canonical", h.GetCanonical)
		r.Get("/summary", h.GetSummary)
		r.Get("/countries", h.GetCountries)
	})

	r.Get("/canonical.csv", h.DownloadCSV)
	r.Get("/canonical.xlsx", h.DownloadXLSX)

	return r
}

// GetCanonical handles GET /api/v1/canonical
func (h *DataHandler) GetCanonical(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.query(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, CanonicalResponse{
		Status:  "success",
		Count:   ct.Len(),
		Columns: ct.Columns(),
		Data:    ct.Rows,
	})
}

// DownloadCSV handles GET /api/v1/canonical.csv
func (h *DataHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.query(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.EncodeCanonical(&buf, ct); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("encode canonical csv", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="canonical.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// DownloadXLSX handles GET /api/v1/canonical.xlsx
func (h *DataHandler) DownloadXLSX(w http.ResponseWriter, r *http.Request) {
	ct, ok := h.query(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.EncodeCanonicalXLSX(&buf, ct); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewStorageError("encode canonical xlsx", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="canonical.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// GetSummary handles GET /api/v1/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   sum,
	})
}

// GetCountries handles GET /api/v1/countries
func (h *DataHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Countries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  len(countries),
		"data":   countries,
	})
}

// query binds and runs the canonical filter, writing the error response
// itself when it fails.
func (h *DataHandler) query(w http.ResponseWriter, r *http.Request) (domain.CanonicalTable, bool) {
	var q CanonicalQuery
	if err := h.validator.BindQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.CanonicalTable{}, false
	}

	ct, err := h.service.Canonical(r.Context(), q.Filter())
	if err != nil {
		h.handleServiceError(w, r, err)
		return domain.CanonicalTable{}, false
	}
	if ct.Rows == nil {
		ct.Rows = []domain.CanonicalRow{}
	}

	h.logger.DebugContext(r.Context(), "canonical query served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("country", q.Country),
		slog.Int("rows", ct.Len()),
	)
	return ct, true
}

// handleServiceError maps service errors to API errors
func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoCanonicalData):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoCanonicalData.WithDetails("trigger a run with POST /api/v1/runs"))
	case errors.Is(err, services.ErrInvalidFilter):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("year_from", fmt.Sprint(err)))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
