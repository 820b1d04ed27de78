package fsmdef

import "errors"

var (
	ErrEmptyDefinition   = errors.New("definition is empty")
	ErrFailedToParseYAML = errors.New("failed to parse YAML definition")
	ErrFailedToParseTOML = errors.New("failed to parse TOML definition")
	ErrFailedToReadFile  = errors.New("failed to read definition file")

	// ErrInvalidDefinition is joined with every structural problem found by Validate.
	ErrInvalidDefinition = errors.New("invalid machine definition")

	// ErrUnknownFunc is returned by Build when a definition names a guard,
	// reducer or action that is missing from the registry.
	ErrUnknownFunc = errors.New("function not registered")
)
