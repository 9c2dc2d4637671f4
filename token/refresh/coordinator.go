package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/internal/metrics"
	"github.com/jrsteele09/go-board-client/navigation"
	"github.com/rs/zerolog/log"
)

// State of the coordinator. The queue is only non-empty while Refreshing.
type State int

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Exchanger trades a refresh token for a new pair with the server.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (*Pair, error)
}

// SessionStore is the part of sessions.Store the coordinator mutates.
type SessionStore interface {
	AccessToken() string
	RefreshToken() string
	SetAuth(accessToken, refreshToken string) error
	Logout() error
}

type outcome struct {
	token string
	err   error
}

// Coordinator makes sure at most one refresh exchange is in flight. The first
// caller to arrive while Idle drives the exchange; everyone arriving while it
// runs is queued and released, in arrival order, with the same outcome.
type Coordinator struct {
	store     SessionStore
	exchanger Exchanger
	navigator navigation.Navigator
	metrics   *metrics.Metrics
	timeout   time.Duration

	mu    sync.Mutex
	state State
	queue []chan outcome

	// release, when set, sees each waiter's channel just before it is resolved.
	release func(chan outcome)
}

type Option func(*Coordinator)

// WithTimeout bounds each exchange. Zero, the default, waits forever.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates an idle coordinator. navigator may be nil.
func NewCoordinator(store SessionStore, exchanger Exchanger, navigator navigation.Navigator, opts ...Option) *Coordinator {
	if navigator == nil {
		navigator = navigation.Nop
	}
	c := &Coordinator{
		store:     store,
		exchanger: exchanger,
		navigator: navigator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued callers.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Acquire returns an access token that is newer than staleToken, the token the
// caller's rejected request carried. If a refresh already replaced staleToken
// the current token is returned straight away; otherwise the caller either
// drives a new exchange or waits for the one in flight.
//
// On failure the session is logged out, the navigator is sent to login and
// every caller gets an error wrapping errors.ErrRefreshFailed. A caller whose
// ctx ends while queued stops waiting; the exchange itself is not cancelled.
func (c *Coordinator) Acquire(ctx context.Context, staleToken string) (string, error) {
	c.mu.Lock()
	if c.state == Refreshing {
		ch := make(chan outcome, 1)
		c.queue = append(c.queue, ch)
		c.mu.Unlock()
		c.metrics.ObserveWaiter()

		select {
		case o := <-ch:
			return o.token, o.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if current := c.store.AccessToken(); current != "" && staleToken != "" && current != staleToken {
		c.mu.Unlock()
		return current, nil
	}

	c.state = Refreshing
	c.mu.Unlock()

	return c.drive(ctx)
}

func (c *Coordinator) drive(ctx context.Context) (string, error) {
	token, err := c.exchange(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", errors.ErrRefreshFailed, err)
		if logoutErr := c.store.Logout(); logoutErr != nil {
			log.Err(logoutErr).Msg("Refresh: failed to clear session after refresh failure")
		}
	}

	c.mu.Lock()
	waiters := c.queue
	c.queue = nil
	c.state = Idle
	c.mu.Unlock()

	for _, w := range waiters {
		if c.release != nil {
			c.release(w)
		}
		w <- outcome{token: token, err: err}
	}

	if err != nil {
		log.Warn().Err(err).Int("waiters", len(waiters)).Msg("Refresh: session ended, redirecting to login")
		c.navigator.ToLogin(err)
		return "", err
	}
	log.Debug().Int("waiters", len(waiters)).Msg("Refresh: token refreshed")
	return token, nil
}

func (c *Coordinator) exchange(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return "", errors.ErrNoRefreshToken
	}

	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	pair, err := c.exchanger.Exchange(ctx, refreshToken)
	if err == nil && pair == nil {
		err = errors.Wrapf(errors.ErrInvalidToken, "[Refresh] exchange returned no token pair")
	}
	if err != nil {
		c.metrics.ObserveRefresh(metrics.OutcomeFailure)
		return "", err
	}
	if err := c.store.SetAuth(pair.AccessToken, pair.RefreshToken); err != nil {
		c.metrics.ObserveRefresh(metrics.OutcomeFailure)
		return "", err
	}
	c.metrics.ObserveRefresh(metrics.OutcomeSuccess)
	return pair.AccessToken, nil
}
