package layer

import "fmt"

// ConfigurationError reports an unusable layer setup: wrong blob counts or
// a missing required configuration field.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("layer configuration: %s", e.Reason)
}

// newConfigurationError creates a standardized configuration failure
func newConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// MissingManifestError reports an absent, unreadable or empty split manifest.
type MissingManifestError struct {
	Path string
	Err  error
}

func (e *MissingManifestError) Error() string {
	return fmt.Sprintf("cannot read split manifest %s: %v", e.Path, e.Err)
}

func (e *MissingManifestError) Unwrap() error {
	return e.Err
}
