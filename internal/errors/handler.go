package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// appProblems maps pipeline error kinds onto HTTP responses. Kinds missing
// here are reported as internal errors.
var appProblems = map[ErrorType]struct {
	status      int
	problemType string
}{
	ErrTypeSchema:   {http.StatusUnprocessableEntity, TypeSchema},
	ErrTypeCoercion: {http.StatusUnprocessableEntity, TypeCoercion},
	ErrTypeParsing:  {http.StatusBadRequest, TypeValidation},
	ErrTypeNotFound: {http.StatusNotFound, TypeNotFound},
	ErrTypeStorage:  {http.StatusInternalServerError, TypeStorage},
}

// ErrorHandler writes every HTTP failure as an RFC 7807 problem and logs it
// against the request ID.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an ErrorHandler. includeStack adds goroutine
// stacks to response bodies and is meant for local debugging only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError responds with the problem matching err. A nil err writes
// nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r).With("trace_id", reqID)
	if h.includeStack {
		problem.With("stack", string(debug.Stack()))
	}
	_ = render.Render(w, r, problem)
}

// ErrorToProblem converts err without writing it.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newProblem(http.StatusGatewayTimeout, TypeTimeout,
			"The request took too long to process and was cancelled", r)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		problem := newProblem(apiErr.StatusCode, apiErr.Type, apiErr.Message, r).
			With("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.With("details", apiErr.Details)
		}
		return problem
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		mapping, ok := appProblems[appErr.Type]
		if !ok {
			return newProblem(http.StatusInternalServerError, TypeInternal, appErr.Message, r)
		}
		detail := appErr.Error()
		if mapping.status >= http.StatusInternalServerError {
			detail = appErr.Message
		}
		problem := newProblem(mapping.status, mapping.problemType, detail, r)
		if len(appErr.Context) > 0 {
			problem.With("context", appErr.Context)
		}
		return problem
	}

	return newProblem(http.StatusInternalServerError, TypeInternal,
		"An unexpected error occurred while processing your request", r)
}

// HandlePanic logs a recovered panic with its stack and responds 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	reqID := middleware.GetReqID(r.Context())
	stack := string(debug.Stack())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack),
	)

	problem := newProblem(http.StatusInternalServerError, TypeInternal, "An unexpected error occurred", r).
		With("trace_id", reqID)
	if h.includeStack {
		problem.With("panic", fmt.Sprint(recovered)).With("stack", stack)
	}
	_ = render.Render(w, r, problem)
}

func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := newProblem(http.StatusNotFound, TypeNotFound, "The requested resource was not found", r).
		With("trace_id", middleware.GetReqID(r.Context()))
	_ = render.Render(w, r, problem)
}

func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := newProblem(http.StatusMethodNotAllowed, TypeMethod,
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r).
		With("trace_id", middleware.GetReqID(r.Context()))
	_ = render.Render(w, r, problem)
}

// Recoverer turns panics in downstream handlers into problem responses.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
