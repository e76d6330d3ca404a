package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTransport    = "TRANSPORT_FAILED"
	ErrCodeTimeout      = "FETCH_TIMEOUT"
	ErrCodeHTTPStatus   = "HTTP_STATUS"
	ErrCodeBlocked      = "ACCESS_BLOCKED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// HTTPStatus is the upstream status code, set only for HTTP_STATUS errors.
	HTTPStatus int `json:"http_status,omitempty"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	// HTTPStatus carries the upstream status for HTTP_STATUS errors.
	HTTPStatus int
	Err        error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewHTTPStatusError creates an HTTP_STATUS error for a non-2xx upstream
// response that survived the retry policy.
func NewHTTPStatusError(status int) *ScrapeError {
	return &ScrapeError{
		Code:       ErrCodeHTTPStatus,
		Message:    fmt.Sprintf("la página respondió HTTP %d", status),
		HTTPStatus: status,
	}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, HTTPStatus: e.HTTPStatus}
}
