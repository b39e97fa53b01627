// Package job defines the closed set of synchronization jobs the engine
// processes. Job is a sealed sum type: every variant is a struct in this
// package and consumption sites switch exhaustively on the concrete type.
// Jobs are immutable once created; their ordering is the submission order.
package job

import "github.com/xraph/pushsync/metadata"

// Kind names a job variant for logging, metrics, and hook attributes.
type Kind string

// Kind constants for all job variants.
const (
	KindStartRegistration  Kind = "start_registration"
	KindRefreshToken       Kind = "refresh_token"
	KindSubscribe          Kind = "subscribe"
	KindUnsubscribe        Kind = "unsubscribe"
	KindSetSubscriptions   Kind = "set_subscriptions"
	KindApplicationStarted Kind = "application_started"
	KindSetUserID          Kind = "set_user_id"
	KindStopRegistration   Kind = "stop_registration"
)

// Job is the sealed interface implemented by every job variant.
type Job interface {
	// Kind returns the variant name.
	Kind() Kind

	sealed()
}

// StartRegistration registers the device with the remote service using the
// given platform token. It is the only job handled while unregistered.
type StartRegistration struct {
	Token string
}

// RefreshToken re-registers the device with a renewed platform token.
type RefreshToken struct {
	Token string
}

// Subscribe adds one interest to the device's subscriptions.
type Subscribe struct {
	Interest string
}

// Unsubscribe removes one interest from the device's subscriptions.
type Unsubscribe struct {
	Interest string
}

// SetSubscriptions replaces the device's subscriptions wholesale.
type SetSubscriptions struct {
	Interests []string
}

// ApplicationStarted reports a fresh metadata snapshot on app launch.
type ApplicationStarted struct {
	Metadata metadata.Metadata
}

// SetUserID associates an authenticated user with the device.
type SetUserID struct {
	UserID string
}

// StopRegistration deletes the device record and clears local state.
type StopRegistration struct{}

// Kind implements Job.
func (StartRegistration) Kind() Kind { return KindStartRegistration }

// Kind implements Job.
func (RefreshToken) Kind() Kind { return KindRefreshToken }

// Kind implements Job.
func (Subscribe) Kind() Kind { return KindSubscribe }

// Kind implements Job.
func (Unsubscribe) Kind() Kind { return KindUnsubscribe }

// Kind implements Job.
func (SetSubscriptions) Kind() Kind { return KindSetSubscriptions }

// Kind implements Job.
func (ApplicationStarted) Kind() Kind { return KindApplicationStarted }

// Kind implements Job.
func (SetUserID) Kind() Kind { return KindSetUserID }

// Kind implements Job.
func (StopRegistration) Kind() Kind { return KindStopRegistration }

func (StartRegistration) sealed()  {}
func (RefreshToken) sealed()       {}
func (Subscribe) sealed()          {}
func (Unsubscribe) sealed()        {}
func (SetSubscriptions) sealed()   {}
func (ApplicationStarted) sealed() {}
func (SetUserID) sealed()          {}
func (StopRegistration) sealed()   {}
