package sessions

import (
	"github.com/jrsteele09/go-board-client/token/jwt"
)

// Session is the authoritative client side auth state. An empty token string
// means the token is absent.
type Session struct {
	AccessToken  string        // Short lived bearer credential
	RefreshToken string        // Exchanged for a new pair when the access token is rejected
	User         *jwt.Identity // Derived from AccessToken, nil when absent or unreadable
}

// persisted is the JSON shape of the durable slot.
type persisted struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newSession(accessToken, refreshToken string) Session {
	s := Session{AccessToken: accessToken, RefreshToken: refreshToken}
	if accessToken != "" {
		s.User, _ = jwt.Decode(accessToken)
	}
	return s
}

// IsZero reports whether the session holds no tokens at all.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}
