package session

import "errors"

// Session errors.
var (
	// ErrNoSession is returned when an operation needs a live session.
	ErrNoSession = errors.New("no active session")

	// ErrServiceDiscoveryFailed is reported when the discovery retry
	// budget is exhausted.
	ErrServiceDiscoveryFailed = errors.New("service discovery failed after multiple attempts")

	// ErrDiscoveryTimeout is reported when a single discovery attempt
	// times out.
	ErrDiscoveryTimeout = errors.New("service discovery timed out")

	// ErrRequiredServiceNotFound is reported when a discovery pass did not
	// contain the provisioning service and characteristic.
	ErrRequiredServiceNotFound = errors.New("required service or characteristic not found")

	// ErrWriteAbandoned is reported for deferred writes dropped because
	// their session ended.
	ErrWriteAbandoned = errors.New("deferred write abandoned")
)
