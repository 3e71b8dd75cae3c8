package triage

import (
	"context"
	"errors"
	"net/http"
)

// Domain errors for triage operations.
var (
	ErrDispatchFailed = errors.New("artifact dispatch failed")
	ErrEmptyBatch     = errors.New("batch contains no documents")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")
)

// MapHTTPStatus maps triage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ErrDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
