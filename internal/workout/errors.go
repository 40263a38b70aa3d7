package workout

import "errors"

// Failures reported by the controller. None of them are returned to the
// caller of a command; they are logged and passed to Options.OnError.
var (
	ErrAuthorizationDenied      = errors.New("authorization denied")
	ErrDeviceUnsupported        = errors.New("health data is not available on this device")
	ErrSessionCreationFailed    = errors.New("could not create workout session")
	ErrCollectionStartFailed    = errors.New("could not begin workout collection")
	ErrCollectionFinalizeFailed = errors.New("could not finalize workout collection")
	ErrSessionRuntimeFailure    = errors.New("workout session failed")
)
