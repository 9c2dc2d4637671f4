package app

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/go-board-client/auth"
	"github.com/jrsteele09/go-board-client/boards"
	"github.com/jrsteele09/go-board-client/gateway"
	"github.com/jrsteele09/go-board-client/internal/config"
	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/internal/metrics"
	"github.com/jrsteele09/go-board-client/navigation"
	"github.com/jrsteele09/go-board-client/sessions"
	"github.com/jrsteele09/go-board-client/sessions/boltrepo"
	sessionrepofake "github.com/jrsteele09/go-board-client/sessions/repofake"
	"github.com/jrsteele09/go-board-client/sessions/sealedrepo"
	"github.com/jrsteele09/go-board-client/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Options change how New wires the client.
type Options struct {
	// Ephemeral keeps the session in memory instead of the bolt file.
	Ephemeral bool
	// Navigator is told about forced logouts. nil ignores them.
	Navigator navigation.Navigator
	// HTTPClient replaces the clients built from the configured timeouts.
	HTTPClient *http.Client
}

// App is the wired board client.
type App struct {
	Config      config.Config
	Store       *sessions.Store
	Auth        *auth.Service
	Coordinator *refresh.Coordinator
	Gateway     *gateway.Gateway
	Boards      *boards.Service
	Metrics     *metrics.Metrics

	registry *prometheus.Registry
	closers  []io.Closer
}

func New(c config.Config, opts Options) (*App, error) {
	a := &App{Config: c, registry: prometheus.NewRegistry()}

	repo, err := a.openRepo(c, opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New(a.registry)
	if err != nil {
		a.Close()
		return nil, errors.Wrapf(err, "[app New] registering metrics")
	}
	a.Metrics = m

	// The auth client carries no client timeout: the refresh exchange is
	// bounded only by the coordinator.
	apiClient := &http.Client{Timeout: c.GetRequestTimeout()}
	authClient := &http.Client{}
	if opts.HTTPClient != nil {
		apiClient, authClient = opts.HTTPClient, opts.HTTPClient
	}

	a.Store = sessions.NewStore(repo)
	authAPI := auth.NewClient(c.GetAPIBaseURL(), authClient)
	a.Auth = auth.NewService(authAPI, a.Store)

	// Board data belongs to the signed in user and goes away with the
	// session, whether the logout was explicit or forced by a failed refresh.
	state := boards.NewState(c.GetPageSize())
	a.Store.Subscribe(func(s sessions.Session) {
		if s.IsZero() {
			state.Reset()
		}
	})

	a.Coordinator = refresh.NewCoordinator(a.Store, authAPI, opts.Navigator,
		refresh.WithTimeout(c.GetRefreshTimeout()),
		refresh.WithMetrics(m),
	)
	a.Gateway = gateway.New(c.GetAPIBaseURL(), a.Store, a.Coordinator,
		gateway.WithHTTPClient(apiClient),
		gateway.WithMetrics(m),
	)
	a.Boards = boards.NewService(boards.NewClient(a.Gateway), state)

	log.Debug().Str("api", c.GetAPIBaseURL()).Bool("authenticated", a.Store.IsAuthenticated()).Msg("App: client ready")
	return a, nil
}

func (a *App) openRepo(c config.Config, ephemeral bool) (sessions.Repo, error) {
	if ephemeral {
		return sessionrepofake.NewFakeSessionRepo(), nil
	}

	bolt, err := boltrepo.Open(c.GetSessionPath())
	if err != nil {
		return nil, errors.Wrapf(err, "[app New] opening session file")
	}
	a.closers = append(a.closers, bolt)

	key := c.GetSessionKey()
	if key == "" {
		return bolt, nil
	}
	sealed, err := sealedrepo.NewFromHex(bolt, key)
	if err != nil {
		a.Close()
		return nil, errors.Wrapf(err, "[app New] session key")
	}
	return sealed, nil
}

// MetricsText renders every counter as "name{labels} value", one per line.
func (a *App) MetricsText() (string, error) {
	families, err := a.registry.Gather()
	if err != nil {
		return "", errors.Wrapf(err, "[app MetricsText]")
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
