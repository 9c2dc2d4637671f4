package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-board-client/internal/errors"
	"github.com/jrsteele09/go-board-client/token/refresh"
)

const (
	RouteSignup  = "/auth/signup"
	RouteSignin  = "/auth/signin"
	RouteRefresh = "/auth/refresh"
)

var _ refresh.Exchanger = (*Client)(nil)

// Client calls the unauthenticated auth endpoints. It deliberately does not go
// through the gateway: a rejected refresh must never trigger another refresh.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL. A nil httpClient
// means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.postJSON(ctx, RouteSignup, req, nil)
}

func (c *Client) Signin(ctx context.Context, req SigninRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, RouteSignin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, RouteRefresh, RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[auth Refresh] response is missing a token")
	}
	return &resp, nil
}

// Exchange implements refresh.Exchanger.
func (c *Client) Exchange(ctx context.Context, refreshToken string) (*refresh.Pair, error) {
	resp, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &refresh.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "[auth] encoding %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrapf(err, "[auth] building %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[auth] POST %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "[auth] reading %s", path)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &errors.StatusError{StatusCode: resp.StatusCode, Method: http.MethodPost, Path: path, Body: respBody}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(err, "[auth] decoding %s", path)
	}
	return nil
}
