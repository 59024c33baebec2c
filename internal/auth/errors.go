package auth

import "errors"

// Error taxonomy for the authentication core. Collaborator failures (store,
// hasher, provider) are wrapped into one of these kinds rather than leaking
// their own error shapes.
var (
	// ErrValidation covers malformed input the caller can correct.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateIdentity is returned when an email or provider link is already taken.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password. The two cases are deliberately indistinguishable so that
	// login responses cannot be used to enumerate registered emails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrUnauthorized is the guard-level failure for any rejected request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps credential store failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// Field-level validation errors, all wrapping ErrValidation via Register.
	ErrNameRequired     = errors.New("name is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password is below the minimum length")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)
