package service

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidOrder = errors.New("invalid sort order")
	ErrUnknownKind  = errors.New("unknown entity kind")
	ErrUpstream     = errors.New("entity source unavailable")
	ErrNoSource     = errors.New("no entity source configured")
	ErrInvalidQuery = errors.New("invalid query")
)
