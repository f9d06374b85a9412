package db

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrNetworkDisabled is returned by every repository call while the gate is disabled.
var ErrNetworkDisabled = status.Error(codes.Unavailable, "store network is disabled")

// IsUnavailable reports whether err means the store could not be reached,
// as opposed to the request itself being rejected.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetworkDisabled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.FailedPrecondition, codes.DeadlineExceeded:
		return true
	}
	return false
}
