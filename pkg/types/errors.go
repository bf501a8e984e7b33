package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the submission pipeline. Validation errors all
// wrap ErrValidation so callers can match the whole family with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidName        = fmt.Errorf("%w: name must be 2-100 letters, spaces or periods", ErrValidation)
	ErrInvalidRoll        = fmt.Errorf("%w: roll must be 1-30 letters, digits or hyphens", ErrValidation)
	ErrInvalidSessionCode = fmt.Errorf("%w: session code does not match", ErrValidation)

	ErrDuplicateRoll = errors.New("roll number already submitted")
	ErrSessionClosed = errors.New("session closed or capacity reached")

	ErrAlreadyActive   = errors.New("session already active")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrStorage = errors.New("storage failure")
)
