// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// QueryError represents a failure while talking to the Dremio SQL API.
type QueryError struct {
	Type    ErrorType
	Message string
	Err     error

	// retryable marks an unavailable error that a fresh login may fix
	// (expired session token), as opposed to bad credentials.
	retryable bool
}

// ErrorType classifies Dremio failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeUnavailable the service itself cannot be reached (failed
	// authentication, connection refused). Fatal for the whole channel.
	ErrorTypeUnavailable
	// ErrorTypeTimeout the query timed out.
	ErrorTypeTimeout
	// ErrorTypeNetwork transient network failure.
	ErrorTypeNetwork
	// ErrorTypeRateLimit the server is throttling requests.
	ErrorTypeRateLimit
	// ErrorTypeQuery the server rejected or failed the query.
	ErrorTypeQuery
)

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether the error means the query channel is down,
// as opposed to a single query failing.
func IsUnavailable(err error) bool {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Type == ErrorTypeUnavailable
	}

	return false
}

// IsTransient reports whether the error is scoped to one query and a later
// query may still succeed.
func IsTransient(err error) bool {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		switch qErr.Type {
		case ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeQuery, ErrorTypeUnknown:
			return true
		case ErrorTypeUnavailable:
			return false
		}
	}

	return !IsUnavailable(err)
}

// IsTimeoutError reports whether the error is a timeout.
func IsTimeoutError(err error) bool {
	var qErr *QueryError
	if errors.As(err, &qErr) {
		return qErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPStatus maps a Dremio HTTP response status to a QueryError.
func ClassifyHTTPStatus(statusCode int, detail string) *QueryError {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &QueryError{
			Type:    ErrorTypeUnavailable,
			Message: fmt.Sprintf("authentication rejected (status %d): %s", statusCode, detail),
		}
	case http.StatusTooManyRequests:
		return &QueryError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusBadRequest:
		return &QueryError{
			Type:    ErrorTypeQuery,
			Message: fmt.Sprintf("query rejected: %s", detail),
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &QueryError{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("service not reachable (status %d)", statusCode),
		}
	default:
		return &QueryError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP %d: %s", statusCode, detail),
		}
	}
}
