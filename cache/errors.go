package cache

import (
	"errors"
	"fmt"
)

// ErrNoAccesses is returned when a ratio is requested before any access has
// been simulated.
var ErrNoAccesses = errors.New("no access has been simulated")

// A ConfigurationError reports a cache configuration that cannot be built.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid cache configuration: %s %v %s",
		e.Field, e.Value, e.Reason)
}
