package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match, the account is disabled, or the account is locked. One message
	// for all three keeps account state from being enumerated.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrIdentityRequired = errors.New("username and email required")
	ErrPasswordRequired = errors.New("password required")
	ErrContentRequired  = errors.New("message content required")
)
