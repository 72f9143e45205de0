package config

import (
	"errors"
	"fmt"
)

// ErrInvalidValue indicates a configuration field holds an unusable value
var ErrInvalidValue = errors.New("invalid configuration value")

// ConfigurationError wraps configuration-related errors
type ConfigurationError struct {
	Cause   error
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in field %s (value: %v): %s: %v",
		e.Field, e.Value, e.Message, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(cause error, field string, value interface{}, message string) *ConfigurationError {
	return &ConfigurationError{
		Cause:   cause,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// IsCredentialsMissing checks if an error reports absent backend credentials
func IsCredentialsMissing(err error) bool {
	return errors.Is(err, ErrCredentialsMissing)
}
