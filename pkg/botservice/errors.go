package botservice

import (
	"errors"
	"fmt"
)

// AuthProviderError reports a failed round trip to the token endpoint,
// the OpenID discovery document or the JWKS document. It is never
// retried internally.
type AuthProviderError struct {
	Op  string
	Err error
}

func (e *AuthProviderError) Error() string {
	return fmt.Sprintf("auth provider %s: %v", e.Op, e.Err)
}

func (e *AuthProviderError) Unwrap() error { return e.Err }

func authProviderError(op string, err error) error {
	return &AuthProviderError{Op: op, Err: err}
}

// Webhook authentication failure reasons. The HTTP boundary surfaces
// these verbatim as "Unauthorized: <reason>".
const (
	ReasonMissingToken     = "Missing or bad Token"
	ReasonInvalidToken     = "Invalid token"
	ReasonKeyNotFound      = "Unable to find right key"
	ReasonBadSignature     = "Unable to verify token"
	ReasonAudienceMismatch = "Unable to verify App Id"
)

// UnauthorizedError terminates inbound request processing before any
// dispatch happens.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return "Unauthorized: " + e.Reason
}

func unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

// ErrKeyNotFound distinguishes a key genuinely absent from a valid key
// set from a failure to obtain the key set at all.
var ErrKeyNotFound = errors.New("signing key not found")
