// internal/gateway/errors.go
package gateway

import (
	"errors"
	"fmt"
	"net/http"

	xerrors "kalakriti-client/internal/pkg/errors"
)

// Kind partitions request failures so callers can tell "server said no" from
// "couldn't reach server" from "session is gone".
type Kind string

const (
	KindHTTP           Kind = "http"
	KindNetwork        Kind = "network"
	KindSessionExpired Kind = "session_expired"
)

// APIError is the typed failure result for any gateway call.
type APIError struct {
	Status  int
	Message string
	Kind    Kind
	cause   error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("network error: %s", e.Message)
	case KindSessionExpired:
		return "session expired"
	default:
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
}

// Unwrap maps well-known failures onto the shared sentinels so callers can
// use errors.Is without importing gateway internals.
func (e *APIError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	switch {
	case e.Kind == KindSessionExpired:
		return xerrors.ErrSessionExpired
	case e.Status == http.StatusUnauthorized:
		return xerrors.ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return xerrors.ErrForbidden
	case e.Status == http.StatusNotFound:
		return xerrors.ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return xerrors.ErrInternal
	}
	return nil
}

// IsNetwork reports whether err is a gateway network failure (status 0).
func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

func newNetworkError(cause error) *APIError {
	return &APIError{
		Status:  0,
		Message: xerrors.MessageOrDefault(cause, "network error occurred"),
		Kind:    KindNetwork,
		cause:   cause,
	}
}

func newSessionExpiredError(status int) *APIError {
	return &APIError{
		Status:  status,
		Message: "session expired",
		Kind:    KindSessionExpired,
	}
}
