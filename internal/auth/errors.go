package auth

import "errors"

var (
	ErrAccountExists     = errors.New("user already exists")
	ErrUnknownAccount    = errors.New("invalid email")
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrBadCredentials    = errors.New("invalid password")
	ErrStaleRefreshToken = errors.New("invalid refresh token")
	ErrUnauthenticated   = errors.New("could not validate credentials")
	ErrVerification      = errors.New("verification error")
)

// ValidationError reports a malformed field in client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
