// Package metadata carries the opaque device metadata snapshot passed to
// the remote service at registration time. The engine never inspects it.
package metadata

// Metadata describes the SDK and host application at registration time.
type Metadata struct {
	SDKVersion     string `json:"sdkVersion,omitempty"`
	AppVersion     string `json:"appVersion,omitempty"`
	SystemVersion  string `json:"systemVersion,omitempty"`
	BundleIdentity string `json:"bundleIdentifier,omitempty"`
}

// Provider supplies the current metadata snapshot.
type Provider interface {
	// Get returns the metadata to attach to registration calls.
	Get() Metadata
}

// Static is a Provider returning a fixed snapshot.
type Static struct {
	Value Metadata
}

// Get implements Provider.
func (s Static) Get() Metadata { return s.Value }
