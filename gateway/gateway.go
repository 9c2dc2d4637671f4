package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries an id that stays the same when a request is replayed.
const RequestIDHeader = "X-Request-ID"

// Request holds everything needed to send, and later replay, one API call.
// Body is kept as bytes so a replay sends exactly what the first attempt did.
type Request struct {
	Method      string
	Path        string // relative to the API root, e.g. "/boards/1"
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "[gateway NewJSONRequest] encoding %s %s", method, path)
		}
		req.Body = data
		req.ContentType = "application/json"
	}
	return req, nil
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TokenSource supplies the access token to attach to each attempt.
type TokenSource interface {
	AccessToken() string
}

// Refresher obtains a newer access token after a 401.
type Refresher interface {
	Acquire(ctx context.Context, staleToken string) (string, error)
}

// Gateway is the single path every authenticated API call goes through. It
// attaches the bearer token and, when the server answers 401, refreshes the
// token and replays the request once.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	refresher  Refresher
	metrics    *metrics.Metrics
}

type Option func(*Gateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func New(baseURL string, tokens TokenSource, refresher Refresher, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		refresher:  refresher,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do sends req. A 401 on the first attempt triggers a refresh and exactly one
// replay; a 401 on the replay is returned as is. If the refresh itself fails
// the original 401 is returned. Other failures are never retried.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	requestID := uuid.NewString()
	logger := log.With().Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).Logger()

	staleToken := g.tokens.AccessToken()
	resp, err := g.send(ctx, req, requestID, staleToken)
	if err == nil || !errors.IsUnauthorized(err) {
		return resp, err
	}
	g.metrics.ObserveUnauthorized()

	token, refreshErr := g.refresher.Acquire(ctx, staleToken)
	if refreshErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn().Err(refreshErr).Msg("Gateway: refresh failed")
		return nil, err
	}

	logger.Debug().Msg("Gateway: replaying request with refreshed token")
	g.metrics.ObserveReplay()
	resp, err = g.send(ctx, req, requestID, token)
	if errors.IsUnauthorized(err) {
		g.metrics.ObserveUnauthorized()
		logger.Warn().Msg("Gateway: replay rejected, giving up")
	}
	return resp, err
}

// DoJSON is Do followed by decoding the response body into out. out may be
// nil when the response body is not needed.
func (g *Gateway) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := g.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.Wrapf(err, "[Gateway DoJSON] decoding %s %s", req.Method, req.Path)
	}
	return nil
}

func (g *Gateway) send(ctx context.Context, req *Request, requestID, accessToken string) (*Response, error) {
	u := g.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway] building %s %s", req.Method, req.Path)
	}

	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway] %s %s", req.Method, req.Path)
	}
	defer httpResp.Body.Close()

	g.metrics.ObserveRequest(req.Method, strconv.Itoa(httpResp.StatusCode))

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway] reading %s %s", req.Method, req.Path)
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, &errors.StatusError{
			StatusCode: httpResp.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Body:       data,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}
