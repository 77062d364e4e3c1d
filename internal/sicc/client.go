// Package sicc is a typed client for the SICC clinical records API.
package sicc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmylchreest/siccprobe/internal/urlutil"
	"github.com/jmylchreest/siccprobe/pkg/httpclient"
)

// API paths.
const (
	HealthPath      = "/actuator/health"
	RegisterPath    = "/api/auth/register"
	LoginPath       = "/api/auth/login"
	LogoutPath      = "/api/auth/logout"
	CurrentUserPath = "/api/users/me"
)

// AccessTokenCookie is the cookie the SICC API uses to carry the session JWT.
const AccessTokenCookie = "access_token"

// Default per-request deadlines.
const (
	DefaultHealthTimeout  = 2 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL        string
	HealthTimeout  time.Duration
	RequestTimeout time.Duration

	// HTTPClient is used for every request. Built from defaults when nil.
	HTTPClient *httpclient.Client
	Logger     *slog.Logger
}

// Client issues one request per call against a SICC deployment.
type Client struct {
	baseURL        string
	http           *httpclient.Client
	healthTimeout  time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// User is the body returned by GET /api/users/me.
type User struct {
	ID        any    `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Role      string `json:"role"`
}

// New creates a client from cfg.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.HTTPClient == nil {
		hc := httpclient.DefaultConfig()
		hc.Logger = cfg.Logger
		cfg.HTTPClient = httpclient.New(hc)
	}

	return &Client{
		baseURL:        urlutil.NormalizeBaseURL(cfg.BaseURL),
		http:           cfg.HTTPClient,
		healthTimeout:  cfg.HealthTimeout,
		requestTimeout: cfg.RequestTimeout,
		logger:         cfg.Logger,
	}
}

// BaseURL returns the API root requests are issued against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls the actuator health endpoint with the short health deadline.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.do(ctx, c.healthTimeout, http.MethodGet, HealthPath, "", nil)
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Response, error) {
	return c.do(ctx, c.requestTimeout, http.MethodPost, RegisterPath, "", req)
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Response, error) {
	return c.do(ctx, c.requestTimeout, http.MethodPost, LoginPath, "", req)
}

// Logout ends the session bound to token.
func (c *Client) Logout(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, c.requestTimeout, http.MethodPost, LogoutPath, token, nil)
}

// CurrentUser fetches the profile of the token's owner.
func (c *Client) CurrentUser(ctx context.Context, token string) (*Response, error) {
	return c.do(ctx, c.requestTimeout, http.MethodGet, CurrentUserPath, token, nil)
}

// List fetches one page of a collection resource.
func (c *Client) List(ctx context.Context, token, path string, page, size int) (*Response, error) {
	return c.Get(ctx, token, ListPath(path, page, size))
}

// Get issues an authenticated GET for path. An empty token sends no
// Authorization header.
func (c *Client) Get(ctx context.Context, token, path string) (*Response, error) {
	return c.do(ctx, c.requestTimeout, http.MethodGet, path, token, nil)
}

// ListPath appends page and size query parameters to path.
func ListPath(path string, page, size int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return path + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path, token string, body any) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlutil.JoinPath(c.baseURL, path), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(httpclient.HeaderAccept, httpclient.ContentTypeJSON)
	if body != nil {
		req.Header.Set(httpclient.HeaderContentType, httpclient.ContentTypeJSON)
	}
	if token != "" {
		req.Header.Set(httpclient.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	return &Response{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    resp.Cookies(),
		Body:       data,
	}, nil
}
