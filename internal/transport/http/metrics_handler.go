package http

import (
	"net/http"

	apierrors "gapminder/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint backed by the
// OpenTelemetry meter provider.
type MetricsHandler struct {
	prom         http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps prom, which is nil when metrics are disabled.
func NewMetricsHandler(prom http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prom: prom, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.prom == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("metrics"))
		return
	}
	h.prom.ServeHTTP(w, r)
}
