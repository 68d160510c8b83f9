package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies a remote failure.
type Kind int

const (
	// Permanent failures are not retried.
	Permanent Kind = iota
	// Transient failures (network, 5xx, timeouts) may succeed on retry.
	Transient
	// RateLimited failures succeed after a cooldown.
	RateLimited
	// NotFound means the addressed event or calendar does not exist.
	NotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case RateLimited:
		return "rate_limited"
	case NotFound:
		return "not_found"
	default:
		return "permanent"
	}
}

// Error is a classified gateway failure.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// NewError wraps err with an operation name and a kind.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("calendar %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification carried by err, Permanent when unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Permanent
}

// IsRetryable reports whether err is transient or rate limited.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case Transient, RateLimited:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err signals a missing event or calendar.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == NotFound
}

// classify wraps a raw client error into an *Error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return NewError(op, kindFor(err), err)
}

var rateLimitReasons = map[string]struct{}{
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
}

func kindFor(err error) Kind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return RateLimited
		case apiErr.Code == http.StatusForbidden:
			for _, item := range apiErr.Errors {
				if _, ok := rateLimitReasons[item.Reason]; ok {
					return RateLimited
				}
			}
			return Permanent
		case apiErr.Code == http.StatusNotFound, apiErr.Code == http.StatusGone:
			return NotFound
		case apiErr.Code >= http.StatusInternalServerError:
			return Transient
		default:
			return Permanent
		}
	}

	if errors.Is(err, context.Canceled) {
		return Permanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Permanent
}
