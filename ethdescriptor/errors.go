package ethdescriptor

import (
	"errors"
	"fmt"
)

var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrArtifactMalformed = errors.New("artifact malformed")
	ErrSerialization     = errors.New("abi serialization failed")
)

// ExtractError reports why a single contract could not be turned into a
// Descriptor. Kind is one of the ErrArtifact* / ErrSerialization sentinels,
// or nil when the batch was cancelled before the contract was attempted.
type ExtractError struct {
	Contract string
	Kind     error
	Err      error
}

func (e *ExtractError) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("%s: %v", e.Contract, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Contract, e.Kind, e.Err)
}

func (e *ExtractError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
