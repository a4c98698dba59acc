package apperr

import (
	"errors"
	"net/http"
)

// Category is the error label reported to API clients.
type Category string

const (
	CategoryValidation    Category = "Validation Error"
	CategoryNotFound      Category = "Resource Not Found"
	CategoryBadRequest    Category = "Bad Request"
	CategoryInternal      Category = "Internal Server Error"
	CategoryDatabase      Category = "Database Error"
	CategoryBusinessLogic Category = "Business Logic Error"
)

// Classify maps err to its HTTP status and category. Unknown errors are
// internal server errors.
func Classify(err error) (int, Category) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, CategoryValidation
	case errors.Is(err, ErrMalformedRequest), errors.Is(err, ErrInvalidParameter):
		return http.StatusBadRequest, CategoryBadRequest
	case errors.Is(err, ErrUnsupportedOperation):
		return http.StatusMethodNotAllowed, CategoryBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CategoryNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, CategoryBusinessLogic
	case errors.Is(err, ErrStore):
		return http.StatusInternalServerError, CategoryDatabase
	default:
		return http.StatusInternalServerError, CategoryInternal
	}
}
