package template

import "errors"

// ErrModelValidation is the sentinel every guard failure unwraps to
var ErrModelValidation = errors.New("model validation failed")

// Guard names
const (
	GuardMissingPrimaryKey      = "MissingPrimaryKey"
	GuardInvalidProjectName     = "InvalidProjectName"
	GuardInvalidIdentifier      = "InvalidIdentifier"
	GuardNameCollision          = "NameCollision"
	GuardDuplicateEntity        = "DuplicateEntity"
	GuardDuplicateProperty      = "DuplicateProperty"
	GuardUnknownEntityReference = "UnknownEntityReference"
	GuardProtectedWithoutAuth   = "ProtectedWithoutAuthorization"
	GuardDuplicatePermission    = "DuplicatePermission"
	GuardUnknownPermission      = "UnknownPermission"
	GuardInvalidSettings        = "InvalidSettings"
)

// ValidationError reports the guard that rejected a template
type ValidationError struct {
	Guard   string `json:"guard"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Guard + ": " + e.Message
}

// Unwrap lets errors.Is match ErrModelValidation
func (e *ValidationError) Unwrap() error {
	return ErrModelValidation
}

// GuardOf returns the guard name of a validation error, or "" for other errors
func GuardOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Guard
	}
	return ""
}
