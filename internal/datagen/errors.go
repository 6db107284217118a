package datagen

import "errors"

// Sentinel kinds for generation errors.
var (
	ErrInvalidConfig = errors.New("invalid generator config")
	ErrWrite         = errors.New("write dataset failed")
)
