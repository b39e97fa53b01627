// Package api defines the remote sync client boundary: the operations the
// engine performs against the push-notification service, the Device record
// the service issues at registration, and the closed error taxonomy.
//
// Every operation takes a retry.Policy. Transient failures (network errors,
// 5xx responses) are absorbed inside the policy and never surface; the
// errors a caller sees are terminal Error values from the closed code set.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/metadata"
	"github.com/xraph/pushsync/retry"
)

// Device is the registration record issued by the remote service.
// It is never mutated; a fresh registration supersedes it.
type Device struct {
	// ID is the opaque device identifier assigned by the service.
	ID string

	// InitialInterests is the interest set the server knows for this
	// device at registration time.
	InitialInterests interest.Set
}

// Client performs registration, deletion, and subscription-set operations
// against the remote service.
type Client interface {
	// Register creates (or re-creates) the device record for the given
	// platform token and returns the issued Device.
	Register(ctx context.Context, token string, md metadata.Metadata, p retry.Policy) (*Device, error)

	// Subscribe adds one interest to the device's server-side set.
	Subscribe(ctx context.Context, deviceID, interestName string, p retry.Policy) error

	// Unsubscribe removes one interest from the device's server-side set.
	Unsubscribe(ctx context.Context, deviceID, interestName string, p retry.Policy) error

	// SetSubscriptions replaces the device's server-side interest set.
	SetSubscriptions(ctx context.Context, deviceID string, interests []string, p retry.Policy) error

	// SetUserID associates an authenticated user with the device.
	SetUserID(ctx context.Context, deviceID, userID string, p retry.Policy) error

	// SetMetadata reports a fresh metadata snapshot for the device.
	SetMetadata(ctx context.Context, deviceID string, md metadata.Metadata, p retry.Policy) error

	// DeleteDevice removes the device record from the service.
	DeleteDevice(ctx context.Context, deviceID string, p retry.Policy) error
}

// Code identifies a terminal API failure category. The set is closed:
// the engine switches exhaustively on it.
type Code string

// Code constants for terminal API failures.
const (
	// CodeDeviceNotFound means the device record no longer exists
	// server-side; the engine's recovery path re-registers.
	CodeDeviceNotFound Code = "device_not_found"

	// CodeInvalidToken means the service rejected the platform token.
	CodeInvalidToken Code = "invalid_token"

	// CodeBadRequest covers all other client-side rejections.
	CodeBadRequest Code = "bad_request"

	// CodeInternal covers unexpected terminal server failures.
	CodeInternal Code = "internal"
)

// Error is a terminal failure from the remote service.
type Error struct {
	Code    Code
	Status  int
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
}

// IsDeviceNotFound reports whether err is a terminal DeviceNotFound failure.
func IsDeviceNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == CodeDeviceNotFound
}
