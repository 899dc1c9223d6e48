package ai

import (
	"errors"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// OperationError carries the user-facing message of a failed AI operation
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func failed(prefix string, err error) *OperationError {
	return &OperationError{Message: prefix + reason(err), Err: err}
}

// reason is the short cause shown to users. Provider errors expose their
// inner cause only; the provider and operation are logged separately.
func reason(err error) string {
	var pe *ai.ProviderError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}

func invalid(message string) error {
	return shared.NewDomainError("INVALID_INPUT", message)
}
