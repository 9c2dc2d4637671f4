package sessions

import (
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/token/jwt"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Store)(nil)

// Store is the single process wide holder of the session. It is safe for
// concurrent use; every mutation goes through SetAuth or Logout.
type Store struct {
	repo Repo

	mu      sync.RWMutex
	session Session
	version uint64

	notifyMu  sync.Mutex
	published uint64
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(Session)
}

// NewStore creates a store seeded from whatever repo currently holds.
func NewStore(repo Repo) *Store {
	s := &Store{repo: repo}
	s.session = s.Load()
	return s
}

// Load reads the persisted slot. An empty, unreadable or malformed slot is
// reported as the empty session; Load never fails.
func (s *Store) Load() Session {
	data, err := s.repo.Get()
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			log.Warn().Err(err).Msg("Session: failed to read persisted session, starting logged out")
		}
		return Session{}
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("Session: persisted session is not valid JSON, starting logged out")
		return Session{}
	}
	if p.AccessToken == "" || p.RefreshToken == "" {
		log.Warn().Err(errors.ErrMalformedSession).Msg("Session: persisted session is missing a token, starting logged out")
		return Session{}
	}

	return newSession(p.AccessToken, p.RefreshToken)
}

// SetAuth stores a new token pair. The pair is persisted before the in memory
// state changes, so memory is never ahead of storage. An access token whose
// payload cannot be read is still stored, just without an identity.
func (s *Store) SetAuth(accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return errors.Wrapf(errors.ErrInvalidToken, "[Store SetAuth] access and refresh tokens are both required")
	}

	data, err := json.Marshal(persisted{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return errors.Wrapf(err, "[Store SetAuth] encoding session")
	}

	next := newSession(accessToken, refreshToken)
	if next.User == nil {
		log.Warn().Msg("Session: access token carries no readable identity")
	}

	s.mu.Lock()
	if err := s.repo.Put(data); err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "[Store SetAuth] persisting session")
	}
	s.session = next
	s.version++
	v := s.version
	s.mu.Unlock()

	s.publish(v, next)
	return nil
}

// Logout clears the session and the persisted slot. Logging out twice is a
// no-op the second time. The in memory session is cleared even when the slot
// cannot be removed; that error is returned afterwards.
func (s *Store) Logout() error {
	s.mu.Lock()
	deleteErr := s.repo.Delete()
	if s.session.IsZero() {
		s.mu.Unlock()
		return errors.Wrapf(deleteErr, "[Store Logout] removing persisted session")
	}
	s.session = Session{}
	s.version++
	v := s.version
	s.mu.Unlock()

	s.publish(v, Session{})
	return errors.Wrapf(deleteErr, "[Store Logout] removing persisted session")
}

// IsAuthenticated reports whether an access token is present. Expiry is not
// checked here; it is only discovered when the server rejects a request.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken != ""
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

func (s *Store) User() *jwt.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User
}

// Token implements oauth2.TokenSource. Expiry is informational and taken from
// the access token's exp claim when it has one.
func (s *Store) Token() (*oauth2.Token, error) {
	session := s.Snapshot()
	if session.AccessToken == "" {
		return nil, errors.ErrNotAuthenticated
	}
	t := &oauth2.Token{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := jwt.Expiry(session.AccessToken); ok {
		t.Expiry = exp
	}
	return t, nil
}

// Subscribe registers fn to be called with the new session after every
// effective SetAuth or Logout. Listeners must not mutate the store.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// publish delivers the session produced by mutation number v. A state that
// is already older than one delivered is dropped, so listeners always end on
// the latest session.
func (s *Store) publish(v uint64, session Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if v <= s.published {
		return
	}
	s.published = v
	for _, l := range s.listeners {
		l.fn(session)
	}
}
