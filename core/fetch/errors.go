package fetch

import "errors"

var (
	// ErrFetchTimeout reports a fetch that exceeded its bounded wait.
	ErrFetchTimeout = errors.New("fetch timed out")
	// ErrGateDetected reports a page still behind a verification gate
	// after every permitted strategy.
	ErrGateDetected = errors.New("verification gate detected")
	// ErrUnavailable reports a non-success HTTP response.
	ErrUnavailable = errors.New("page unavailable")
)
