package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrQuotaExhausted is returned when the daily allowance of the service
	// key is used up, either locally counted or reported by upstream.
	ErrQuotaExhausted = errors.New("upstream daily quota exhausted")
)

// ErrorClass represents a classification of upstream errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and quota errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUpstream represents an error document returned with
	// status 200.
	ErrorClassUpstream ErrorClass = "upstream"
)

// UpstreamError represents a failed upstream call with additional context.
type UpstreamError struct {
	StatusCode int
	ErrorClass ErrorClass
	// ResultCode is the returnReasonCode of an upstream error document.
	ResultCode string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	msg := e.Message
	if e.ResultCode != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, e.ResultCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will fail the same way again
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		// 429 is retried with a longer backoff; quota errors are filtered
		// out by classifyForRetry
		return true
	case ErrorClassNetwork:
		return true
	case ErrorClassUpstream:
		return false
	default:
		return false
	}
}

// classifyForRetry returns the class of err and whether it is worth
// another attempt.
func classifyForRetry(err error) (ErrorClass, bool) {
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return ErrorClassNetwork, true
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return upErr.ErrorClass, false
	}
	return upErr.ErrorClass, shouldRetry(upErr.ErrorClass)
}
