package optim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Use errors.Is to check them.
var (
	// ErrInvalidConfig marks out-of-domain hyperparameters rejected at construction.
	ErrInvalidConfig = errors.New("optim: invalid configuration")

	// ErrInvalidArgument marks arguments of the wrong kind, such as binding a
	// scheduler to a nil optimizer or loading a malformed state tree.
	ErrInvalidArgument = errors.New("optim: invalid argument")

	// ErrShapeMismatch marks gradients without a matching parameter or state
	// node, or arrays whose shapes cannot be combined.
	ErrShapeMismatch = errors.New("optim: shape mismatch")
)

// ConfigError describes a rejected hyperparameter.
type ConfigError struct {
	Rule    string // Rule or scheduler that rejected the value
	Name    string // Hyperparameter name
	Value   any    // Rejected value
	Message string // Allowed range or constraint
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Rule, e.Name, e.Value, e.Message)
}

// Is reports ConfigError as ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalidConfig(rule, name string, value any, message string) error {
	return errors.WithStack(&ConfigError{Rule: rule, Name: name, Value: value, Message: message})
}

func shapeMismatch(path, format string, args ...any) error {
	return errors.Wrapf(ErrShapeMismatch, "parameter %q: "+format, append([]any{path}, args...)...)
}

func invalidArgument(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
