package recommend

import "errors"

var (
	// ErrInvalidInput indicates the request text was empty or whitespace.
	ErrInvalidInput = errors.New("user input is required")
	// ErrMalformedOutput indicates the model answer could not be read as recommendations.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrUpstream indicates the model provider call itself failed.
	ErrUpstream = errors.New("recommendation provider failed")
)
