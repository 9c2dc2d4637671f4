package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-board-client/token/jwt"
)

// Categories served by GET /boards/categories.
var Categories = map[string]string{
	"NOTICE": "공지",
	"FREE":   "자유",
	"QNA":    "Q&A",
	"ETC":    "기타",
}

// Recorded is one request the server saw.
type Recorded struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type user struct {
	Username     string
	Name         string
	PasswordHash string
}

type board struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Category  string  `json:"boardCategory"`
	ImageURL  *string `json:"imageUrl"`
	CreatedAt string  `json:"createdAt"`
}

// Server is an in-memory board API behind an httptest.Server. Every exported
// method is safe to call while requests are in flight.
type Server struct {
	*httptest.Server

	creator   *jwt.Creator
	accessTTL time.Duration

	mu            sync.Mutex
	users         map[string]user
	access        map[string]string // valid access token -> username
	refresh       map[string]string // valid refresh token -> username
	boards        map[int64]*board
	nextBoardID   int64
	refreshCalls  int
	refreshHold   chan struct{}
	refreshFail   bool
	rejectAll     bool
	requests      []Recorded
	refreshBodies []string
	lastParts     []Part
}

// New starts a server. Close it with Close.
func New() *Server {
	s := &Server{
		creator:     jwt.NewCreator([]byte("fakeapi-" + uuid.NewString())),
		accessTTL:   time.Hour,
		users:       make(map[string]user),
		access:      make(map[string]string),
		refresh:     make(map[string]string),
		boards:      make(map[int64]*board),
		nextBoardID: 1,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the API root clients should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/signin", s.handleSignin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/boards", s.handleListBoards)
			r.Post("/boards", s.handleCreateBoard)
			r.Get("/boards/categories", s.handleCategories)
			r.Get("/boards/{id}", s.handleGetBoard)
			r.Patch("/boards/{id}", s.handleUpdateBoard)
			r.Delete("/boards/{id}", s.handleDeleteBoard)
		})
	})
	return r
}

// AddUser registers a user directly, bypassing signup.
func (s *Server) AddUser(username, name, password string) {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{Username: username, Name: name, PasswordHash: hash}
}

// IssuePair mints a valid token pair for an existing or ad hoc user.
func (s *Server) IssuePair(username, name string) (accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username, name)
}

func (s *Server) issueLocked(username, name string) (string, string) {
	access, err := s.creator.CreateAccessToken(jwt.Identity{Username: username, DisplayName: name}, s.accessTTL)
	if err != nil {
		panic(err)
	}
	refresh := uuid.NewString()
	s.access[access] = username
	s.refresh[refresh] = username
	return access, refresh
}

// ExpireAccessTokens makes every access token issued so far unacceptable, as
// if they had all passed their exp.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]string)
}

// HoldRefresh makes /auth/refresh block until the returned func is called.
func (s *Server) HoldRefresh() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold := make(chan struct{})
	s.refreshHold = hold
	var once sync.Once
	return func() {
		once.Do(func() { close(hold) })
	}
}

// FailRefresh makes /auth/refresh answer 401.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFail = fail
}

// RejectAll makes every authenticated endpoint answer 401 whatever the token.
func (s *Server) RejectAll(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = reject
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// RefreshTokensSeen returns the refresh tokens sent to /auth/refresh in order.
func (s *Server) RefreshTokensSeen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refreshBodies...)
}

// Requests returns every request seen, optionally only those whose path has
// the given suffix.
func (s *Server) Requests(pathSuffix string) []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recorded
	for _, r := range s.requests {
		if pathSuffix == "" || strings.HasSuffix(r.Path, pathSuffix) {
			out = append(out, r)
		}
	}
	return out
}

// BoardCount is the number of stored boards.
func (s *Server) BoardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, valid := s.access[token]
		reject := s.rejectAll
		s.mu.Unlock()

		if !ok || !valid || reject {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.creator.Verify(token); err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
