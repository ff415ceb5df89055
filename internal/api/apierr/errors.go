package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/savebridge/internal/model"
	"github.com/mcoot/savebridge/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	CodeSlotNotFound       = "SLOT_NOT_FOUND"
	CodeSlotNotOpen        = "SLOT_NOT_OPEN"
	CodeStaleSlotHandle    = "STALE_SLOT_HANDLE"
	CodeInvalidSlotName    = "INVALID_SLOT_NAME"
	CodeUnknownStrategy    = "UNKNOWN_STRATEGY"
	CodeUnknownDataSource  = "UNKNOWN_DATA_SOURCE"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Map model errors
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrSlotNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSlotNotFound, "Save slot not found"}}
	case errors.Is(err, model.ErrSlotNotOpen):
		return &httpError{http.StatusConflict, APIError{CodeSlotNotOpen, "Save slot has not been opened"}}
	case errors.Is(err, model.ErrStaleHandle):
		return &httpError{http.StatusConflict, APIError{CodeStaleSlotHandle, "Save slot has changed since it was opened"}}
	case errors.Is(err, model.ErrInvalidSlotName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidSlotName, "Slot names are 1-100 characters of A-Z, a-z, 0-9, '.', '_' or '-'"}}
	case errors.Is(err, model.ErrUnknownStrategy):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownStrategy, "Unknown conflict resolution strategy"}}
	case errors.Is(err, model.ErrUnknownDataSource):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownDataSource, "Unknown data source"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
