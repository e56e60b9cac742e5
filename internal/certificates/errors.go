package certificates

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is returned when no certificate template exists for
	// the requested id or form.
	ErrTemplateNotFound = errors.New("certificate template not found")

	// ErrResponseNotFound is returned when the requested response is missing.
	ErrResponseNotFound = errors.New("response not found")

	// ErrTemplateInactive is returned when an operation targets a template
	// that has been deactivated. Inactive templates are excluded from sweeps
	// and from manual generation alike.
	ErrTemplateInactive = errors.New("certificate template is inactive")
)

// TemplateError indicates the template bytes do not parse as a usable PDF.
// Rendering that template keeps failing until the operator replaces it.
type TemplateError struct {
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid certificate template: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid certificate template: %s", e.Reason)
}

func (e *TemplateError) Unwrap() error { return e.Err }
