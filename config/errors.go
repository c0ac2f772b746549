package config

import "errors"

var (
	// ErrConfigUnmarshal is returned when config unmarshalling fails
	ErrConfigUnmarshal = errors.New("failed to unmarshal configuration")
	// ErrUnknownPageKind is returned when a custom page declares an unrecognized kind
	ErrUnknownPageKind = errors.New("unknown custom page kind")
	// ErrContextNameRequired is returned when a context declaration has no name
	ErrContextNameRequired = errors.New("context name is required")
)
