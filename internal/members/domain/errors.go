package members

import "errors"

var (
	// ErrEmptyName is returned when a member name is empty.
	ErrEmptyName = errors.New("members: empty name")
	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("members: invalid email")
	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("members: email already registered")
	// ErrNotFound is returned when a member does not exist.
	ErrNotFound = errors.New("members: not found")
	// ErrInvalidCredentials is returned on failed authentication.
	ErrInvalidCredentials = errors.New("members: invalid email or password")
	// ErrWeakPassword is returned when a password is too short.
	ErrWeakPassword = errors.New("members: password must be at least 8 characters")
	// ErrInvalidRole is returned when registering with an unknown role.
	ErrInvalidRole = errors.New("members: invalid role")
)
