package redact

import (
	"errors"
	"fmt"
)

// ErrValidatorTimeout is returned by a validator that did not finish within
// its time bound. The gateway treats it as a rejection.
var ErrValidatorTimeout = errors.New("validator timed out")

// ConfigError reports a catalog that cannot be used: an invalid pattern, a
// pattern with more than one capturing group, or a bad secret-type name.
type ConfigError struct {
	Type    string
	Pattern string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Pattern != "" {
		msg = fmt.Sprintf("pattern %q: %s", e.Pattern, msg)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("secret type %q: %s", e.Type, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "configuration error: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvocationError reports a validator that could not be launched or did not
// exit cleanly.
type InvocationError struct {
	Path string
	Err  error
}

func (e *InvocationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validator failed: %v", e.Err)
	}
	return fmt.Sprintf("validator %s failed: %v", e.Path, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsInvocationError reports whether err is or wraps an *InvocationError.
func IsInvocationError(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
