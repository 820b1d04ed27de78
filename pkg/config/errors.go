package config

import "errors"

var (
	// ErrParsingConfig wraps env parsing failures, including missing required variables.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrLoadingEnvFile wraps failures reading an env file.
	ErrLoadingEnvFile = errors.New("failed to load env file")

	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
