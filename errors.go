package pushsync

import "errors"

var (
	// Store errors.
	ErrNoStore     = errors.New("pushsync: no state store configured")
	ErrStoreClosed = errors.New("pushsync: state store closed")

	// Engine errors.
	ErrNoClient      = errors.New("pushsync: no api client configured")
	ErrEngineStopped = errors.New("pushsync: engine stopped")

	// State errors.
	ErrNotRegistered = errors.New("pushsync: device not registered")
)
