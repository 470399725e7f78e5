package authsdk

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/doorman/pkg/httpx"
)

// APIError is an error response, {"error": "..."}. The server writes the
// predefined values below; the client returns them parsed.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Is matches on status and message, so a parsed response matches the
// predefined value it was written from.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode && t.Message == e.Message
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Message)
}

var (
	ErrUnprocessable        = &APIError{StatusCode: http.StatusUnprocessableEntity, Message: "Unprocessable request"}
	ErrInvalidCredentials   = &APIError{StatusCode: http.StatusBadRequest, Message: "Invalid credentials"}
	ErrUserAlreadyExists    = &APIError{StatusCode: http.StatusConflict, Message: "User already exists"}
	ErrIncorrectCredentials = &APIError{StatusCode: http.StatusUnauthorized, Message: "Incorrect credentials"}
	ErrMissingToken         = &APIError{StatusCode: http.StatusBadRequest, Message: "Missing auth token"}
	ErrInvalidToken         = &APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid auth token"}
	ErrUnexpected           = &APIError{StatusCode: http.StatusInternalServerError, Message: "Unexpected error"}
	ErrUnsupportedMediaType = &APIError{StatusCode: http.StatusUnsupportedMediaType, Message: "Content-Type must be application/json"}
)
