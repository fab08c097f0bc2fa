package model

// Version constants for durable records.
const (
	// SessionVersion is written into every saved Session.
	SessionVersion = "3.0.0"

	// DefaultSessionID is the key of the single active session.
	DefaultSessionID = "current"
)

// supportedSessionVersions lists record versions this build can read.
// Anything else is treated as absent.
var supportedSessionVersions = map[string]bool{
	SessionVersion: true,
}

// IsSupportedSessionVersion reports whether a record tagged v can be loaded.
func IsSupportedSessionVersion(v string) bool {
	return supportedSessionVersions[v]
}
