package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidLimit = errors.New("invalid listing limit")
	ErrInvalidOrder = errors.New("invalid sort order")
	ErrUnknownKind  = errors.New("unknown entity kind")
)
