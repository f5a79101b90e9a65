package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout        = "SCRAPE_TIMEOUT"
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeMissingElement = "MISSING_ELEMENT"
	ErrCodeReshape        = "RESHAPE_FAILED"
	ErrCodeSessionRelease = "SESSION_RELEASE_FAILED"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"
	ErrCodeIncomplete     = "INCOMPLETE_RECORD"
	ErrCodeStore          = "STORE_FAILED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
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

// MissingElement reports a structural element that was not found on a loaded page.
func MissingElement(page, what string) *ScrapeError {
	return NewScrapeError(ErrCodeMissingElement, fmt.Sprintf("%s: %s not found", page, what), nil)
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// IsCode reports whether any ScrapeError in err's chain carries code.
func IsCode(err error, code string) bool {
	var se *ScrapeError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Err
	}
	return false
}

// AsScrapeError returns the outermost ScrapeError in err's chain, wrapping
// anything else as an internal error.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}
