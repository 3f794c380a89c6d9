package frameworks

import "errors"

// Domain errors for framework resolution and configuration.
var (
	ErrUnsupported   = errors.New("unsupported framework")
	ErrInvalidConfig = errors.New("invalid framework config")
)
