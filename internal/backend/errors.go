package backend

import (
	"fmt"
	"net/http"

	appErrors "github.com/noah-isme/thesis-portal/pkg/errors"
)

// RequestError is returned for every failed backend call. Message is the
// backend-provided message when present, else the operation fallback.
type RequestError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AppError maps the failure onto the portal error taxonomy while keeping
// the backend message visible to the user.
func (e *RequestError) AppError() *appErrors.Error {
	base := appErrors.ErrBackend
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = appErrors.ErrValidation
	case http.StatusNotFound:
		base = appErrors.ErrNotFound
	case http.StatusConflict:
		base = appErrors.ErrConflict
	case http.StatusForbidden:
		base = appErrors.ErrForbidden
	}
	out := appErrors.Clone(base, e.Message)
	out.Err = e
	return out
}
