package insights

import "errors"

// Sentinel kinds for insight errors.
var (
	ErrNoAPIKey      = errors.New("insights: genai api key is required")
	ErrEmptyResponse = errors.New("insights: empty model response")
	ErrBadResponse   = errors.New("insights: malformed model response")
)
