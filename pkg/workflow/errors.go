package workflow

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is wrapped by triggers that refuse a delivery whose
// origin cannot be verified. The host answers 403 and records nothing.
var ErrUnauthorized = errors.New("unauthorized delivery")

// ConfigurationError reports a node that cannot run with its current
// credentials or parameters. The host halts the affected node.
type ConfigurationError struct {
	Node   string
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Node == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: node %s: %s", e.Node, e.Reason)
}

// Configf builds a ConfigurationError for node.
func Configf(node, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Node: node, Reason: fmt.Sprintf(format, args...)}
}
