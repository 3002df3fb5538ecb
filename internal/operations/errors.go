package operations

import (
	"errors"
	"fmt"

	"gapminder/pkg/contracts/domain"
)

// ErrRunInProgress is returned by Run while another run holds the manager.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// ErrDuplicateSource is returned by Run when two sources share an indicator.
var ErrDuplicateSource = errors.New("indicator has more than one source")

// SourceError wraps the failure of one source branch.
type SourceError struct {
	Indicator domain.Indicator
	Step      string
	Path      string
	Err       error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Step, e.Indicator, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// SourceErrors extracts every SourceError joined into err.
func SourceErrors(err error) []*SourceError {
	if err == nil {
		return nil
	}
	var out []*SourceError
	var se *SourceError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, SourceErrors(e)...)
		}
		return out
	}
	if errors.As(err, &se) {
		out = append(out, se)
	}
	return out
}
