package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tnrbusiness/outreach/internal/domain"
)

// Error classifies platform call failures into the shared taxonomy.
type Error struct {
	Kind       domain.FailureKind
	StatusCode int
	RetryAfter *time.Duration
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, fmt.Sprintf("adapter error [%s]", e.Kind))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// KindOf maps any error to the shared failure taxonomy.
func KindOf(err error) domain.FailureKind {
	if err == nil {
		return ""
	}

	var adapterErr *Error
	if errors.As(err, &adapterErr) {
		return adapterErr.Kind
	}

	switch {
	case errors.Is(err, domain.ErrExpired):
		return domain.FailureExpired
	case errors.Is(err, domain.ErrNotFound):
		return domain.FailureNotFound
	case errors.Is(err, domain.ErrValidation):
		return domain.FailureInvalidContent
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTransientNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FailureTransientNetwork
	}

	return domain.FailureTransientNetwork
}

// IsTransient reports whether the caller may safely retry the call.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(err).Retryable()
}

// Detail converts an error into the caller-visible result shape.
func Detail(err error) *domain.ErrorDetail {
	if err == nil {
		return nil
	}

	detail := &domain.ErrorDetail{
		Kind:    KindOf(err),
		Message: err.Error(),
	}

	var adapterErr *Error
	if errors.As(err, &adapterErr) && adapterErr.RetryAfter != nil {
		detail.RetryAfter = adapterErr.RetryAfter
	}

	return detail
}

// classifyStatus maps a platform HTTP status into the taxonomy. Applied only
// to non-2xx responses.
func classifyStatus(statusCode int, body string, retryAfter string) *Error {
	e := &Error{
		StatusCode: statusCode,
		Message:    statusMessage(statusCode, body),
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Kind = domain.FailureRateLimited
		if d := parseRetryAfter(retryAfter); d > 0 {
			e.RetryAfter = &d
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Kind = domain.FailureExpired
	case statusCode >= 400 && statusCode < 500:
		e.Kind = domain.FailureInvalidContent
	default:
		e.Kind = domain.FailureTransientNetwork
	}

	return e
}

// transportError wraps a failed request that never produced a response.
func transportError(err error) *Error {
	return &Error{
		Kind:    domain.FailureTransientNetwork,
		Message: "platform request failed",
		Cause:   err,
	}
}

// credentialError maps credential store failures to fail-fast adapter errors.
func credentialError(platform domain.Platform, err error) *Error {
	switch {
	case errors.Is(err, domain.ErrExpired):
		return &Error{
			Kind:    domain.FailureExpired,
			Message: fmt.Sprintf("%s credential expired, reconnect required", strings.ToLower(platform.String())),
			Cause:   err,
		}
	case errors.Is(err, domain.ErrNotFound):
		return &Error{
			Kind:    domain.FailureNotFound,
			Message: fmt.Sprintf("%s is not connected", strings.ToLower(platform.String())),
			Cause:   err,
		}
	default:
		return &Error{
			Kind:    domain.FailureTransientNetwork,
			Message: "credential lookup failed",
			Cause:   err,
		}
	}
}

// contentError marks input that violates platform constraints before any
// network call is made.
func contentError(format string, args ...any) *Error {
	return &Error{
		Kind:    domain.FailureInvalidContent,
		Message: fmt.Sprintf(format, args...),
	}
}

func validateContentLength(platform domain.Platform, content string) *Error {
	limit := domain.MaxContent(platform)
	if got := len([]rune(content)); got > limit {
		return contentError("content exceeds %d characters (got %d)", limit, got)
	}
	return nil
}

func statusMessage(statusCode int, body string) string {
	base := fmt.Sprintf("platform returned status %d", statusCode)
	body = strings.TrimSpace(body)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
