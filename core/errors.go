package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every scenario validation failure.
	ErrInvalidConfig = errors.New("invalid scenario configuration")
	// ErrUnsatisfiableAssignment is returned when rejection sampling cannot
	// find enough distinct files within the resample budget.
	ErrUnsatisfiableAssignment = errors.New("unsatisfiable file assignment")
	// ErrInvariantViolation marks a logic defect: a duplicate or
	// out-of-range file id in a node inventory.
	ErrInvariantViolation = errors.New("catalog invariant violated")
	ErrCatalogNotBuilt    = errors.New("catalog not built")
	ErrUnknownNode        = errors.New("unknown node")
	ErrInvalidState       = errors.New("invalid engine state")
)

// ConfigError describes one rejected scenario field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match any ConfigError.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }
