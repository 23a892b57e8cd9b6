package login

import "errors"

var (
	// ErrInvalidCredentials is sent when the email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInternalServerError is sent for unexpected failures during the login process.
	ErrInternalServerError = errors.New("internal server error")

	// ErrInvalidResetToken is sent when a reset token cannot be used.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
