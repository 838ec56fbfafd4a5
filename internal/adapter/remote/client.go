// Package remote is the HTTP client for the OceanEye backend API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

// BaseURLFunc returns the API base URL. It is consulted on every request so
// a session override takes effect immediately.
type BaseURLFunc func() string

// StaticBaseURL returns a BaseURLFunc that always yields base.
func StaticBaseURL(base string) BaseURLFunc {
	return func() string { return base }
}

// Client calls the remote OceanEye API. Timeouts come from the caller's
// context.
type Client struct {
	baseURL    BaseURLFunc
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a remote API client. A nil httpClient uses a default
// client without its own timeout.
func NewClient(baseURL BaseURLFunc, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type envelope struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	User  *domain.User    `json:"user,omitempty"`
	Items []domain.Report `json:"items,omitempty"`
}

// Ping checks GET /api/health. Any 2xx status is healthy; the body is ignored.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// ListReports fetches GET /api/reports.
func (c *Client) ListReports(ctx context.Context) ([]domain.Report, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/reports", nil, "list reports")
	if err != nil {
		return nil, err
	}
	if env.Items == nil {
		return []domain.Report{}, nil
	}
	return env.Items, nil
}

// CreateReport posts a new report. The response body is not interpreted
// beyond the status code.
func (c *Client) CreateReport(ctx context.Context, d domain.Draft) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/reports", d)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
	return nil
}

// Signup registers an account remotely.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (domain.User, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/auth/signup", req, "Signup")
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil {
		return domain.User{}, &domain.APIError{Message: "Signup failed: response carried no user"}
	}
	return *env.User, nil
}

// Login authenticates an email/password pair remotely.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.call(ctx, http.MethodPost, "/api/auth/login", body, "Login")
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil {
		return domain.User{}, &domain.APIError{Message: "Login failed: response carried no user"}
	}
	return *env.User, nil
}

// call performs a request and decodes the {ok, ...} envelope. Transport
// failures are returned as-is; a non-2xx status or ok:false becomes an
// *domain.APIError carrying the server message.
func (c *Client) call(ctx context.Context, method, path string, body any, op string) (envelope, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return envelope{}, err
	}
	defer resp.Body.Close()

	// A malformed body decodes as ok:false.
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.OK {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("%s failed (%d)", op, resp.StatusCode)
		}
		return envelope{}, &domain.APIError{Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		r = bytes.NewReader(buf)
	}

	url := strings.TrimRight(c.baseURL(), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
