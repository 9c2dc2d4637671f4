package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Creator signs HS256 access tokens shaped like the ones the board API
// issues. The client never needs it; the fake backend and tests do.
type Creator struct {
	secret []byte
}

// NewCreator creates a new JWT creator
func NewCreator(secret []byte) *Creator {
	return &Creator{
		secret: secret,
	}
}

// CreateAccessToken creates an access token for the given identity that
// expires after ttl.
func (c *Creator) CreateAccessToken(id Identity, ttl time.Duration) (string, error) {
	claims := jwtlib.MapClaims{
		"sub":      id.Username,
		"username": id.Username,
		"name":     id.DisplayName,
		"iat":      NowTimeFunc().Unix(),
		"exp":      NowTimeFunc().Add(ttl).Unix(),
		"jti":      uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Verify parses rawToken and checks its signature and expiry.
func (c *Creator) Verify(rawToken string) (*Identity, error) {
	token, err := jwtlib.Parse(rawToken, func(t *jwtlib.Token) (interface{}, error) {
		return c.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil {
		return nil, err
	}
	id, ok := Decode(token.Raw)
	if !ok {
		return nil, fmt.Errorf("token has no identity")
	}
	return id, nil
}
