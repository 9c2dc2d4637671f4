package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Identity is the display-only user info carried in an access token payload.
// It is a projection of the token and has no lifecycle of its own.
type Identity struct {
	Username    string `json:"username"`
	DisplayName string `json:"name"`
}

// segmentParser only decodes segments; it never verifies anything.
var segmentParser = jwtlib.NewParser(jwtlib.WithPaddingAllowed())

// Decode extracts the identity from the payload segment of rawToken without
// contacting the server and without checking the signature. It never fails
// loudly: any structural, encoding or shape problem yields (nil, false).
func Decode(rawToken string) (*Identity, bool) {
	claims, ok := payload(rawToken)
	if !ok {
		return nil, false
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, false
	}
	name, _ := claims["name"].(string)

	return &Identity{Username: username, DisplayName: name}, true
}

// Expiry returns the exp claim of rawToken, if it has a readable one.
func Expiry(rawToken string) (time.Time, bool) {
	claims, ok := payload(rawToken)
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func payload(rawToken string) (claims jwtlib.MapClaims, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			claims, ok = nil, false
		}
	}()

	parts := strings.Split(rawToken, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil, false
	}

	raw, ok := decodeSegment(parts[1])
	if !ok {
		return nil, false
	}

	claims = jwtlib.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// decodeSegment accepts the base64url alphabet JWTs use and falls back to the
// standard alphabet, padded or not.
func decodeSegment(seg string) ([]byte, bool) {
	if raw, err := segmentParser.DecodeSegment(seg); err == nil {
		return raw, true
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if raw, err := enc.DecodeString(seg); err == nil {
			return raw, true
		}
	}
	return nil, false
}
