package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs.
const (
	TypeValidation     = "/errors/validation"
	TypeNotFound       = "/errors/not-found"
	TypeRateLimit      = "/errors/rate-limit"
	TypeInternal       = "/errors/internal"
	TypeServiceDown    = "/errors/service-unavailable"
	TypeTimeout        = "/errors/timeout"
	TypeConflict       = "/errors/conflict"
	TypeMethod         = "/errors/method-not-allowed"
	TypeSchema         = "/errors/data/schema"
	TypeCoercion       = "/errors/data/coercion"
	TypeSourceRejected = "/errors/pipeline/source-rejected"
	TypePipeline       = "/errors/pipeline/failed"
	TypeStorage        = "/errors/storage"
)

// ProblemDetails is an RFC 7807 error body. Extensions are written as
// top-level members next to the standard fields.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]any
}

// Render sets the response status before chi/render encodes the body.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]any, 5+len(pd.Extensions))
	for k, v := range pd.Extensions {
		data[k] = v
	}
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	return json.Marshal(data)
}

// newProblem builds a problem whose title is the standard status text.
func newProblem(status int, problemType, detail string, r *http.Request) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     detail,
		Instance:   r.URL.Path,
		Extensions: make(map[string]any),
	}
}

// With sets an extension member and returns pd for chaining.
func (pd *ProblemDetails) With(key string, value any) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}
