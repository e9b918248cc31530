package botservice

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RequestValidator authenticates inbound webhook calls against the
// channel authority's rotating signing keys. It is the sole gate before
// an activity is normalized and dispatched.
type RequestValidator struct {
	keys  *KeyStore
	appID string
}

func NewRequestValidator(keys *KeyStore, appID string) *RequestValidator {
	return &RequestValidator{keys: keys, appID: appID}
}

// Verify checks the Authorization header of an inbound webhook call.
// Failures are *UnauthorizedError with a distinct reason per step, or
// *AuthProviderError when the key set itself could not be obtained.
func (v *RequestValidator) Verify(ctx context.Context, activity *Activity, authorization string) error {
	raw, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || raw == "" {
		return unauthorized(ReasonMissingToken)
	}

	// First pass reads the header kid without checking the signature.
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return unauthorized(ReasonInvalidToken)
	}
	kid, _ := unverified.Header["kid"].(string)

	domain := DomainForChannel(activity.ChannelID)

	key, err := v.keys.SigningKey(ctx, domain, kid, activity.ChannelID)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return unauthorized(ReasonKeyNotFound)
	case err != nil:
		return err
	}

	var opts []jwt.ParserOption
	if len(key.SigningAlgs) > 0 {
		opts = append(opts, jwt.WithValidMethods(key.SigningAlgs))
	}
	parser := jwt.NewParser(opts...)
	token, err := parser.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return key.Key, nil
	})
	if err != nil || !token.Valid {
		return unauthorized(ReasonBadSignature)
	}

	audience, err := token.Claims.GetAudience()
	if err != nil || !slices.Contains(audience, v.appID) {
		return unauthorized(ReasonAudienceMismatch)
	}

	return nil
}
