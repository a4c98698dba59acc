package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/starford/articles/internal/apperr"
)

const timestampLayout = "2006-01-02T15:04:05.000"

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Status           int                 `json:"status" example:"400"`
	Error            apperr.Category     `json:"error" swaggertype:"string" example:"Validation Error"`
	Message          string              `json:"message" example:"Validation failed for one or more fields"`
	Details          string              `json:"details" example:"Please check the provided data and try again"`
	Path             string              `json:"path" example:"/api/articles"`
	Timestamp        string              `json:"timestamp" example:"2025-01-15T10:30:00.000"`
	ValidationErrors []apperr.FieldError `json:"validationErrors,omitempty"`
	ErrorID          string              `json:"errorId" example:"ERR-1A2B3C4D"`
}

// requestError is a failure detected by the API layer itself, before the
// service is reached.
type requestError struct {
	kind    error
	details string
	cause   error
}

func (e *requestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %v", e.kind, e.cause)
	}
	return e.kind.Error()
}

func (e *requestError) Unwrap() error { return e.kind }

func newErrorID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ERR-" + strings.ToUpper(id[:8])
}

// buildErrorResponse translates err into the envelope. Driver messages and
// other internals never reach Details.
func buildErrorResponse(r *http.Request, err error) ErrorResponse {
	status, category := apperr.Classify(err)
	resp := ErrorResponse{
		Status:    status,
		Error:     category,
		Path:      r.URL.Path,
		Timestamp: time.Now().Format(timestampLayout),
		ErrorID:   newErrorID(),
	}

	var (
		verr   *apperr.ValidationError
		reqErr *requestError
		nfErr  *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		resp.Message = "Validation failed for one or more fields"
		resp.Details = "Please check the provided data and try again"
		resp.ValidationErrors = verr.Fields
	case errors.Is(err, apperr.ErrMalformedRequest):
		resp.Message = "Malformed JSON request"
		resp.Details = "The request body contains invalid JSON or missing required fields"
	case errors.Is(err, apperr.ErrInvalidParameter):
		resp.Message = "Invalid parameter type"
		resp.Details = "A request parameter has an unsupported type"
	case errors.Is(err, apperr.ErrUnsupportedOperation):
		resp.Message = "HTTP method not supported"
		resp.Details = fmt.Sprintf("Method '%s' is not supported for this endpoint", r.Method)
	case errors.Is(err, apperr.ErrNotFound) && errors.As(err, &nfErr):
		resp.Message = nfErr.Error()
		resp.Details = "The requested operation could not be completed"
	case errors.Is(err, apperr.ErrNotFound):
		resp.Message = "Endpoint not found"
		resp.Details = fmt.Sprintf("No handler found for %s %s", r.Method, r.URL.Path)
	case errors.Is(err, apperr.ErrConflict):
		resp.Message = "Article already exists"
		resp.Details = "Article operation failed due to business logic constraints"
	case errors.Is(err, apperr.ErrStore):
		resp.Message = "Database operation failed"
		resp.Details = "An error occurred while accessing the database. Please try again later."
	default:
		resp.Message = "An unexpected error occurred"
		resp.Details = "Please contact support if this problem persists"
	}
	if errors.As(err, &reqErr) && reqErr.details != "" {
		resp.Details = reqErr.details
	}
	return resp
}

// respondError logs err with its tracking id and writes the envelope.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := buildErrorResponse(r, err)

	attrs := []any{
		slog.String("error_id", resp.ErrorID),
		slog.String("category", string(resp.Error)),
		slog.Int("status", resp.Status),
		slog.String("method", r.Method),
		slog.String("path", resp.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	}
	if resp.Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		h.logger.WarnContext(r.Context(), "request rejected", attrs...)
	}

	if resp.Status == http.StatusMethodNotAllowed {
		if allowed := allowedMethods(r); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			resp.Details += ". Supported methods: " + strings.Join(allowed, ", ")
		}
	}
	writeJSON(w, resp.Status, resp)
}
