package services

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCode       = errors.New("distributor code already exists")
	ErrDistributorNotFound = errors.New("distributor not found")
	ErrEnvioNotFound       = errors.New("envio not found")
	ErrReasonRequired      = errors.New("a reason is required for reassignment")
	ErrNoICCIDs            = errors.New("no ICCIDs provided")
	ErrValidation          = errors.New("validation failed")

	ErrActiveAssignmentExists = errors.New("iccid already has an active assignment")
)

// validationError wraps ErrValidation with the offending field so handlers can
// report it inline.
type validationError struct {
	Field   string
	Message string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *validationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) error {
	return &validationError{Field: field, Message: message}
}

// ValidationField returns the field and message carried by a validation error.
func ValidationField(err error) (string, string, bool) {
	var ve *validationError
	if errors.As(err, &ve) {
		return ve.Field, ve.Message, true
	}
	return "", "", false
}
