package rate

import "errors"

var (
	// ErrRateLimited is returned when no token can be obtained before the caller's deadline.
	ErrRateLimited = errors.New("outbound rate limited")
)
