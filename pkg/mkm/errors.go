package mkm

import "fmt"

// ConfigurationError reports a client that cannot be built from its
// configuration, typically because the application keys are missing.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError reports a request body rejected before it was sent.
type ValidationError struct {
	Payload string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s body: %s %s", e.Payload, e.Field, e.Reason)
}

func invalid(payload, field, reason string) error {
	return &ValidationError{Payload: payload, Field: field, Reason: reason}
}
