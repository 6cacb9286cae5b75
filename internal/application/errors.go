package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication material does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrNoConnection is returned when an operation requires a LinkedIn connection and none exists.
	ErrNoConnection = errors.New("application: linkedin account not connected")
	// ErrConnectionExpired is returned when the stored LinkedIn token is past its expiry.
	ErrConnectionExpired = errors.New("application: linkedin connection expired")
	// ErrAlreadyPublished is returned when a publish targets a draft that is already out.
	ErrAlreadyPublished = errors.New("application: draft already published")
	// ErrNoPublishableContent is returned when a publish targets a draft with empty content.
	ErrNoPublishableContent = errors.New("application: draft has no publishable content")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
