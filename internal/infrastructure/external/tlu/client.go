package tlu

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"

	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/shared"
	"github.com/tlu-hub/tlu-group-hub/pkg/circuitbreaker"
)

// Portal endpoints, relative to the base URL.
const (
	TokenPath   = "/education/oauth/token"
	SummaryPath = "/education/api/studentsummarymark/getbystudent"
	MarksPath   = "/education/api/studentsubjectmark/getListStudentMarkBySemesterByLoginUser/0"
	CoursesPath = "/education/api/StudentCourseSubject/studentLoginUser/13"
)

// DefaultBaseURL is the production portal.
const DefaultBaseURL = "https://sinhvien1.tlu.edu.vn"

// maxBodySize bounds every portal response.
const maxBodySize = 8 << 20

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RequestObserver is told about every finished portal call. outcome is the
// HTTP status code or "error".
type RequestObserver func(endpoint, outcome string, elapsed time.Duration)

// ClientConfig contains configuration for the portal client.
type ClientConfig struct {
	// BaseURL is the portal base URL.
	BaseURL string

	// ClientID and ClientSecret are the public OAuth client of the portal.
	ClientID     string
	ClientSecret string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS verification. The portal has served an
	// incomplete certificate chain.
	InsecureSkipVerify bool

	// Retry behaviour of idempotent reads and transport failures.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	RateLimiterConfig RateLimiterConfig

	// BreakerCooldown overrides how long the circuit breaker stays open.
	// Zero keeps the portal preset.
	BreakerCooldown time.Duration

	// Logger for structured logging.
	Logger *slog.Logger

	// Observer receives per-request outcomes, e.g. for metrics.
	Observer RequestObserver
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return ClientConfig{
		BaseURL:           baseURL,
		ClientID:          "education_client",
		ClientSecret:      "password",
		Timeout:           15 * time.Second,
		RetryMax:          2,
		RetryWaitMin:      300 * time.Millisecond,
		RetryWaitMax:      3 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the portal API client. It is safe for concurrent use; tokens
// belong to callers, not to the client.
type Client struct {
	config      ClientConfig
	http        *retryablehttp.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	mapper      *Mapper
}

// NewClient creates a new portal client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger.With("component", "tlu_client")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // portal certificate chain is incomplete
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: config.Timeout, Transport: transport}
	rc.RetryMax = config.RetryMax
	rc.RetryWaitMin = config.RetryWaitMin
	rc.RetryWaitMax = config.RetryWaitMax
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		config:      config,
		http:        rc,
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		mapper:      NewMapper(),
	}
	rc.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.rateLimiter.RecordRateLimitHit(retryAfter(resp))
		}
	}
	var breakerOpts []circuitbreaker.Option
	if config.BreakerCooldown > 0 {
		breakerOpts = append(breakerOpts, circuitbreaker.WithCooldown(config.BreakerCooldown))
	}
	c.breaker = circuitbreaker.PortalBreaker(shared.IsExternalService, func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}, breakerOpts...)
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// Authenticate exchanges portal credentials for an access token using the
// OAuth password grant. Rejected credentials return ErrInvalidCredentials.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*TokenDTO, error) {
	form := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"grant_type":    {"password"},
		"username":      {username},
		"password":      {password},
	}

	return circuitbreaker.Do(ctx, c.breaker, func(ctx context.Context) (*TokenDTO, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+TokenPath, []byte(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		var token TokenDTO
		status, err := c.do(ctx, req, TokenPath, &token)
		switch {
		case status == http.StatusBadRequest || status == http.StatusUnauthorized:
			return nil, shared.ErrInvalidCredentials
		case err != nil:
			return nil, err
		case token.AccessToken == "":
			return nil, shared.WrapError("portal", "Authenticate", shared.ErrInvalidFormat, "token response without access_token", nil)
		}
		if token.TokenType == "" {
			token.TokenType = "Bearer"
		}
		if token.ExpiresIn > 0 {
			token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		}
		return &token, nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// FetchProfile reads the summary, the mark list and the course list in
// parallel and maps them to a registration profile. The first failure cancels
// the other requests. The three reads pass the breaker as one call, so a
// single half-open probe covers the whole profile.
func (c *Client) FetchProfile(ctx context.Context, login, accessToken string) (*registration.Profile, error) {
	var (
		summary SummaryDTO
		marks   MarkListDTO
		courses []CourseDTO
	)

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return c.getJSON(gctx, accessToken, SummaryPath, &summary) })
		g.Go(func() error { return c.getJSON(gctx, accessToken, MarksPath, &marks) })
		g.Go(func() error { return c.getJSON(gctx, accessToken, CoursesPath, &courses) })
		return g.Wait()
	})
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", login, err)
	}

	p := c.mapper.Profile(login, &summary, marks, courses)
	c.logger.Debug("portal profile fetched",
		"student_id", p.StudentID.String(),
		"sessions", p.Sessions.String(),
		"has_mark", p.Mark != nil,
	)
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// getJSON performs an authenticated GET through the limiter. Callers wrap it
// in the breaker.
func (c *Client) getJSON(ctx context.Context, accessToken, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	status, err := c.do(ctx, req, path, out)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return shared.ErrPortalTokenExpired
	}
	return err
}

// do sends the request and decodes a 2xx JSON body into out. It returns the
// final status code, zero when no response arrived.
func (c *Client) do(ctx context.Context, req *retryablehttp.Request, endpoint string, out any) (int, error) {
	if err := c.rateLimiter.Allow(ctx); err != nil {
		var rl *RateLimitError
		if errors.As(err, &rl) {
			return 0, shared.WrapError("portal", "Request", shared.ErrServiceUnavailable, "rate limited", err)
		}
		return 0, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if resp != nil {
			resp.Body.Close()
		}
		return 0, shared.WrapError("portal", "Request", shared.ErrServiceUnavailable, endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return resp.StatusCode, shared.WrapError("portal", "Request", shared.ErrServiceUnavailable, endpoint,
			fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, shared.WrapError("portal", "Request", shared.ErrInvalidInput, endpoint,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return resp.StatusCode, shared.WrapError("portal", "Parse", shared.ErrInvalidFormat, endpoint, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.config.Observer != nil {
		c.config.Observer(endpoint, outcome, time.Since(start))
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 30 * time.Second
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus reports the protective state of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker string
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.breaker.State().String(),
	}
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.HTTPClient.CloseIdleConnections()
}
