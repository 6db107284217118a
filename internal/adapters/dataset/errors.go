package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrMissingColumn = errors.New("dataset: required column missing")
	ErrEmptyHeader   = errors.New("dataset: missing header row")
	ErrRead          = errors.New("dataset: read failed")
	ErrMalformedRow  = errors.New("dataset: malformed row")
)
