package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/sessions"
	"github.com/jrsteele09/go-board-client/token/jwt"
	"github.com/rs/zerolog/log"
)

// Service is the sign up / sign in / sign out flow on top of the session store.
type Service struct {
	client    *Client
	store     *sessions.Store
	validator *Validator
}

func NewService(client *Client, store *sessions.Store) *Service {
	return &Service{
		client:    client,
		store:     store,
		validator: NewValidator(),
	}
}

// Signup validates the form locally and registers the account. It does not
// sign the user in.
func (s *Service) Signup(ctx context.Context, req SignupRequest) error {
	if err := s.validator.ValidateSignup(req); err != nil {
		return err
	}
	if err := s.client.Signup(ctx, req); err != nil {
		return errors.Wrapf(err, "[auth Signup] %s", req.Username)
	}
	return nil
}

// Login signs in and stores the returned pair. A 401 from the server is
// reported as errors.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*jwt.Identity, error) {
	if err := s.validator.ValidateUserCredentials(username, password); err != nil {
		return nil, err
	}

	resp, err := s.client.Signin(ctx, SigninRequest{Username: username, Password: password})
	if err != nil {
		var se *errors.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrapf(err, "[auth Login] %s", username)
	}

	if err := s.store.SetAuth(resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, err
	}

	user := s.store.User()
	if user != nil {
		log.Info().Str("username", user.Username).Msg("Auth: signed in")
	}
	return user, nil
}

// Logout ends the local session. There is no server side logout endpoint.
func (s *Service) Logout() error {
	return s.store.Logout()
}

// CurrentUser is the identity of the signed in user, or nil.
func (s *Service) CurrentUser() *jwt.Identity {
	return s.store.User()
}
