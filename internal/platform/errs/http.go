package errs

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a service error to the status code its handler should
// return. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbiddenRole):
		return http.StatusForbidden
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	case errors.Is(err, ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
