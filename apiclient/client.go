package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	maxBodyBytes   = 1 << 20
	defaultTimeout = 10 * time.Second
)

// Options configures a [Client].
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	ValidatePath    string
	CurrentUserPath string
	LoginPath       string
	RequestIDHeader string
	// Transport is the base round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
	UserAgent string
}

// Client talks to the booking API. It implements [goSession.SessionValidator],
// [goSession.CurrentUserFetcher] and [goSession.Authenticator].
type Client struct {
	base   *url.URL
	opts   Options
	plain  *http.Client
	baseRT http.RoundTripper
}

// New creates a client. BaseURL must be absolute.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ValidatePath == "" {
		opts.ValidatePath = "/api/auth/validate-token"
	}
	if opts.CurrentUserPath == "" {
		opts.CurrentUserPath = "/api/users/me"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/api/auth/login"
	}
	if opts.RequestIDHeader == "" {
		opts.RequestIDHeader = "X-Request-ID"
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rt := &requestIDTransport{header: opts.RequestIDHeader, userAgent: opts.UserAgent, next: base}

	return &Client{
		base:   u,
		opts:   opts,
		plain:  &http.Client{Transport: rt, Timeout: opts.Timeout},
		baseRT: rt,
	}, nil
}

// FromConfig builds a client from the API section of the resolver config.
func FromConfig(cfg goSession.APIConfig, transport http.RoundTripper) (*Client, error) {
	return New(Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		ValidatePath:    cfg.ValidatePath,
		CurrentUserPath: cfg.CurrentUserPath,
		LoginPath:       cfg.LoginPath,
		RequestIDHeader: cfg.RequestIDHeader,
		Transport:       transport,
	})
}

// Validate calls the validate-token endpoint with token as the bearer credential.
func (c *Client) Validate(ctx context.Context, token string) (goSession.User, error) {
	return c.fetchUser(ctx, token, c.opts.ValidatePath)
}

// CurrentUser calls the current-user endpoint. The response may be wrapped in
// {"user": ...} or be a bare user object.
func (c *Client) CurrentUser(ctx context.Context, token string) (goSession.User, error) {
	return c.fetchUser(ctx, token, c.opts.CurrentUserPath)
}

// SignIn posts the email and password to the login endpoint.
func (c *Client) SignIn(ctx context.Context, email, password string) (goSession.SignInResult, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return goSession.SignInResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.opts.LoginPath), bytes.NewReader(body))
	if err != nil {
		return goSession.SignInResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.plain.Do(req)
	if err != nil {
		return goSession.SignInResult{}, goSession.NewValidationError(goSession.ReasonNetwork, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return goSession.SignInResult{}, goSession.NewValidationError(goSession.ReasonNetwork, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return goSession.SignInResult{}, statusError(resp.StatusCode, raw)
	}

	var out loginResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return goSession.SignInResult{}, goSession.NewValidationError(goSession.ReasonMalformed, resp.StatusCode, err)
	}
	user := out.User.toUser()
	if out.Token == "" || user.ID == "" {
		return goSession.SignInResult{}, goSession.NewValidationError(goSession.ReasonMalformed, resp.StatusCode, errors.New("login response missing token or user id"))
	}
	return goSession.SignInResult{Token: out.Token, User: user}, nil
}

func (c *Client) fetchUser(ctx context.Context, token, path string) (goSession.User, error) {
	if token == "" {
		return goSession.User{}, goSession.ErrCredentialsAbsent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return goSession.User{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.bearer(token).Do(req)
	if err != nil {
		return goSession.User{}, goSession.NewValidationError(goSession.ReasonNetwork, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return goSession.User{}, goSession.NewValidationError(goSession.ReasonNetwork, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return goSession.User{}, statusError(resp.StatusCode, raw)
	}

	user, err := decodeUser(raw)
	if err != nil {
		return goSession.User{}, goSession.NewValidationError(goSession.ReasonMalformed, resp.StatusCode, err)
	}
	return user, nil
}

// bearer returns a client that authorises every request with token.
func (c *Client) bearer(token string) *http.Client {
	return &http.Client{
		Timeout: c.opts.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.baseRT,
		},
	}
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// statusError maps a non-2xx response onto a failure reason.
func statusError(status int, body []byte) error {
	msg := serverMessage(body)
	var cause error
	if msg != "" {
		cause = errors.New(msg)
	}

	switch {
	case status == http.StatusUnauthorized:
		if strings.Contains(strings.ToLower(msg), "expired") {
			return goSession.NewValidationError(goSession.ReasonExpired, status, cause)
		}
		return goSession.NewValidationError(goSession.ReasonInvalid, status, cause)
	case status == http.StatusForbidden:
		return goSession.NewValidationError(goSession.ReasonInvalid, status, cause)
	case status == http.StatusTooManyRequests, status >= 500:
		return goSession.NewValidationError(goSession.ReasonNetwork, status, cause)
	case status >= 400:
		return goSession.NewValidationError(goSession.ReasonInvalid, status, cause)
	default:
		return goSession.NewValidationError(goSession.ReasonUnknown, status, cause)
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// requestIDTransport stamps every outgoing request with a fresh request id.
type requestIDTransport struct {
	header    string
	userAgent string
	next      http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get(t.header) == "" {
		req.Header.Set(t.header, uuid.NewString())
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}
