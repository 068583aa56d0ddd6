// Package gen provides the variant generation engine for zodgen.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidConfig indicates a configuration error.
	ErrInvalidConfig = errors.New("zodgen: invalid configuration")
	// ErrNamingCollision indicates that a naming collision could not be resolved.
	ErrNamingCollision = errors.New("zodgen: naming collision")
	// ErrInvalidGraph indicates a relation graph error.
	ErrInvalidGraph = errors.New("zodgen: invalid relation graph")
	// ErrGenerationFailed indicates a generation failure.
	ErrGenerationFailed = errors.New("zodgen: generation failed")
	// ErrValidationFailed indicates an export validation failure.
	ErrValidationFailed = errors.New("zodgen: validation failed")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("zodgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("zodgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// NamingError is returned when collision retries are exhausted under the
// THROW_ERROR strategy. It aborts only the (model, variant) unit it belongs to.
type NamingError struct {
	Model    string
	Variant  VariantType
	Name     string
	Attempts int
}

// Error implements the error interface.
func (e *NamingError) Error() string {
	return fmt.Sprintf("zodgen: naming collision for %s (%s): %q still taken after %d attempts",
		e.Model, e.Variant, e.Name, e.Attempts)
}

// Is reports whether the target matches the sentinel error for NamingError.
func (e *NamingError) Is(target error) bool {
	return target == ErrNamingCollision
}

// NewNamingError creates a new NamingError.
func NewNamingError(model string, variant VariantType, name string, attempts int) *NamingError {
	return &NamingError{
		Model:    model,
		Variant:  variant,
		Name:     name,
		Attempts: attempts,
	}
}

// GraphError represents a relation graph error, such as a relation that
// points to a model outside the in-scope set.
type GraphError struct {
	From    string
	To      string
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString("zodgen: graph error")
	if e.Field != "" {
		b.WriteString(" on field ")
		b.WriteString(e.Field)
	}
	if e.From != "" && e.To != "" {
		fmt.Fprintf(&b, " (%s -> %s)", e.From, e.To)
	} else if e.From != "" {
		b.WriteString(" from ")
		b.WriteString(e.From)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GraphError.
func (e *GraphError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// NewGraphError creates a new GraphError.
func NewGraphError(from, to, fieldName, message string, cause error) *GraphError {
	return &GraphError{
		From:    from,
		To:      to,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// GenerationError represents a failure of one generation unit.
type GenerationError struct {
	Model   string
	Variant string // variant name, "enum" or an operation name
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("zodgen: generation error")
	if e.Model != "" {
		b.WriteString(" for ")
		b.WriteString(e.Model)
	}
	if e.Variant != "" {
		b.WriteString(" (")
		b.WriteString(e.Variant)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(model, variant, message string, cause error) *GenerationError {
	return &GenerationError{
		Model:   model,
		Variant: variant,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError represents an export validation error.
type ValidationError struct {
	Module  string
	Name    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("zodgen: validation error")
	if e.Module != "" {
		b.WriteString(" in module ")
		b.WriteString(e.Module)
	}
	if e.Name != "" {
		b.WriteString(" for ")
		b.WriteString(e.Name)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(module, name, message string) *ValidationError {
	return &ValidationError{
		Module:  module,
		Name:    name,
		Message: message,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsNamingError reports whether the error is a NamingError.
func IsNamingError(err error) bool {
	var namingErr *NamingError
	return errors.As(err, &namingErr)
}

// IsGraphError reports whether the error is a GraphError.
func IsGraphError(err error) bool {
	var graphErr *GraphError
	return errors.As(err, &graphErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsValidationError reports whether the error is a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
