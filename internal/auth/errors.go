package auth

import "errors"

var (
	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrEmailExists is returned when attempting to create a user with an email that already exists.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrInvalidCredentials is returned when the email or password is wrong. Both cases share
	// one error so that callers cannot tell which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenMissing is returned when a request carries no bearer token.
	ErrTokenMissing = errors.New("no token provided")

	// ErrTokenInvalid is returned for tokens that fail signature, expiry or claim checks.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenRevoked is returned for tokens revoked by a logout or a completed password reset.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrSecretEmpty is returned when the service is built without a signing secret.
	ErrSecretEmpty = errors.New("token secret cannot be empty")
)
