package analytics

import "errors"

// Sentinel kinds for remote analytics errors.
var (
	ErrInvalidBaseURL = errors.New("analytics: invalid base url")
	ErrUpstream       = errors.New("analytics: upstream request failed")
	ErrNotFound       = errors.New("analytics: entity not found upstream")
)
