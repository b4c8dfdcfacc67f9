// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package dremio

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "Unavailable query error",
			err:  &QueryError{Type: ErrorTypeUnavailable, Message: "auth failed"},
			want: true,
		},
		{
			name: "Wrapped unavailable",
			err:  fmt.Errorf("resolving site: %w", &QueryError{Type: ErrorTypeUnavailable, Message: "auth failed"}),
			want: true,
		},
		{
			name: "Timeout is not unavailable",
			err:  &QueryError{Type: ErrorTypeTimeout, Message: "timed out"},
			want: false,
		},
		{
			name: "Plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailable(tt.err); got != tt.want {
				t.Errorf("IsUnavailable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	transient := []ErrorType{ErrorTypeTimeout, ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeQuery, ErrorTypeUnknown}
	for _, typ := range transient {
		if !IsTransient(&QueryError{Type: typ, Message: "x"}) {
			t.Errorf("type %d should be transient", typ)
		}
	}

	if IsTransient(&QueryError{Type: ErrorTypeUnavailable, Message: "x"}) {
		t.Error("unavailable must not be transient")
	}
}

func TestIsTimeoutError(t *testing.T) {
	if !IsTimeoutError(&QueryError{Type: ErrorTypeTimeout, Message: "x"}) {
		t.Error("typed timeout not detected")
	}

	if !IsTimeoutError(errors.New("context deadline exceeded")) {
		t.Error("deadline exceeded message not detected")
	}

	if IsTimeoutError(errors.New("no rows")) {
		t.Error("false positive timeout")
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeUnavailable},
		{http.StatusForbidden, ErrorTypeUnavailable},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadRequest, ErrorTypeQuery},
		{http.StatusServiceUnavailable, ErrorTypeNetwork},
		{http.StatusBadGateway, ErrorTypeNetwork},
		{http.StatusGatewayTimeout, ErrorTypeNetwork},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		got := ClassifyHTTPStatus(tt.status, "")
		if got.Type != tt.want {
			t.Errorf("ClassifyHTTPStatus(%d) = %d, want %d", tt.status, got.Type, tt.want)
		}
	}
}

func TestQueryErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &QueryError{Type: ErrorTypeNetwork, Message: "query request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}

	if err.Error() != "query request failed: connection refused" {
		t.Errorf("unexpected Error(): %s", err.Error())
	}
}
