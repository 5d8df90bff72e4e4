// Package notify is the HTTP client for the Notifications API, the external
// system of record for users, services, templates, and organisations.
//
// The client carries the cross-cutting concerns every call needs: bearer JWT
// authentication, trace header propagation, bounded retry on 503, the
// frozen-service guard, and platform-admin action logging. Callers work with
// typed endpoint methods; nothing above this package builds raw requests.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/notifyops/notify-admin/internal/platform/errors"
	"github.com/notifyops/notify-admin/internal/platform/requestctx"
	"github.com/notifyops/notify-admin/internal/platform/timeouts"
)

// maxAttempts caps GET retries when the API answers 503.
const maxAttempts = 3

// retryBaseDelay is the first backoff step between 503 retries.
const retryBaseDelay = 100 * time.Millisecond

// ErrServiceInactive rejects mutations against a frozen service before any
// request leaves the process. This guard is the single enforcement point for
// the frozen-service rule.
var ErrServiceInactive = apperrors.New(apperrors.CodeAuthzServiceInactive, "service inactive")

// APIError is a 4xx response from the Notifications API. The API returns 400
// bodies as either a plain string or a field-to-messages map; both forms are
// preserved so form handlers can render field-level errors.
type APIError struct {
	StatusCode  int
	URL         string
	Message     string
	FieldErrors map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("api %d %s", e.StatusCode, e.URL)
}

// Config defines the inputs for the API client.
type Config struct {
	BaseURL string
	// ClientID is the short admin client identifier used as the JWT issuer.
	ClientID string
	// Secret signs outbound bearer JWTs.
	Secret string
	// RouteSecret is forwarded verbatim so the API's edge can verify the
	// request came through the admin route.
	RouteSecret string
	UserAgent   string
	HTTPClient  *http.Client
	// Now is injectable for tests.
	Now func() time.Time
}

// Client calls the Notifications API.
type Client struct {
	baseURL     string
	clientID    string
	secret      []byte
	routeSecret string
	userAgent   string
	httpClient  *http.Client
	now         func() time.Time
	sleep       func(time.Duration)
}

// NewClient builds a configured API client.
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	if strings.TrimSpace(config.ClientID) == "" {
		return nil, errors.New("api client id is required")
	}
	if strings.TrimSpace(config.Secret) == "" {
		return nil, errors.New("api secret is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.APIRequest}
	}
	userAgent := strings.TrimSpace(config.UserAgent)
	if userAgent == "" {
		userAgent = "notify-admin"
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:     baseURL,
		clientID:    config.ClientID,
		secret:      []byte(config.Secret),
		routeSecret: config.RouteSecret,
		userAgent:   userAgent,
		httpClient:  httpClient,
		now:         now,
		sleep:       time.Sleep,
	}, nil
}

// UserContext identifies the acting user for guard checks and audit logging.
type UserContext struct {
	ID            string
	EmailAddress  string
	PlatformAdmin bool
}

// ServiceContext identifies the service bound to the current request.
type ServiceContext struct {
	ID     string
	Active bool
}

type userContextKey struct{}
type serviceContextKey struct{}

// WithCurrentUser binds the acting user for subsequent API calls.
func WithCurrentUser(ctx context.Context, user UserContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// CurrentUser returns the acting user bound to the context.
func CurrentUser(ctx context.Context) (UserContext, bool) {
	if ctx == nil {
		return UserContext{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(UserContext)
	return user, ok
}

// WithCurrentService binds the current service for the frozen-service guard.
func WithCurrentService(ctx context.Context, service ServiceContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, serviceContextKey{}, service)
}

// CurrentService returns the service bound to the context.
func CurrentService(ctx context.Context) (ServiceContext, bool) {
	if ctx == nil {
		return ServiceContext{}, false
	}
	service, ok := ctx.Value(serviceContextKey{}).(ServiceContext)
	return service, ok
}

// userDetailPathPattern matches GET /user/{uuid}; those reads render on every
// page header and are excluded from admin-action logging to avoid log spam.
var userDetailPathPattern = regexp.MustCompile(`^/user/[0-9a-fA-F-]{36}$`)

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// delete issues a DELETE.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return errors.New("api client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if method != http.MethodGet {
		if err := c.checkServiceActive(ctx); err != nil {
			return err
		}
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	c.logAdminAction(ctx, method, requestURL, path)

	attempts := 1
	if method == http.MethodGet {
		attempts = maxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.sleep(retryDelay(attempt))
		}
		retry, err := c.doOnce(ctx, method, requestURL, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

// doOnce performs a single request. The bool reports whether the failure is
// retryable (503 on the wire).
func (c *Client) doOnce(ctx context.Context, method, requestURL string, payload []byte, out any) (bool, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	bearer, err := c.bearerToken()
	if err != nil {
		return false, fmt.Errorf("sign bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-agent", c.userAgent)
	if c.routeSecret != "" {
		req.Header.Set("X-Custom-Forwarder", c.routeSecret)
	}
	if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		req.Header.Set("X-B3-TraceId", span.TraceID().String())
		req.Header.Set("X-B3-SpanId", span.SpanID().String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", method, requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return true, &APIError{StatusCode: resp.StatusCode, URL: requestURL, Message: "service unavailable"}
	}
	if resp.StatusCode >= 400 {
		return false, decodeAPIError(resp, requestURL)
	}
	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", requestURL, err)
	}
	return false, nil
}

// checkServiceActive enforces the frozen-service rule for mutations.
func (c *Client) checkServiceActive(ctx context.Context) error {
	service, ok := CurrentService(ctx)
	if !ok || service.Active {
		return nil
	}
	if user, ok := CurrentUser(ctx); ok && user.PlatformAdmin {
		return nil
	}
	return ErrServiceInactive
}

// logAdminAction records calls made by platform admins. GETs of single user
// records are skipped: the header renders one on every page.
func (c *Client) logAdminAction(ctx context.Context, method, requestURL, path string) {
	user, ok := CurrentUser(ctx)
	if !ok || !user.PlatformAdmin {
		return
	}
	if method == http.MethodGet && userDetailPathPattern.MatchString(path) {
		return
	}
	log.Printf("WARN: platform admin request %s %s by %s", method, requestURL, user.EmailAddress)
}

// bearerToken mints the short-lived API JWT for one request.
func (c *Client) bearerToken() (string, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"iss": c.clientID,
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// retryDelay produces a small exponential backoff with jitter. The three
// attempt ceiling is fixed; only the spacing between attempts grows.
func retryDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(retryBaseDelay / 2)))
	return delay + jitter
}

// decodeAPIError turns a 4xx response into an APIError, handling both the
// string and field-map message shapes the API produces for 400s.
func decodeAPIError(resp *http.Response, requestURL string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, URL: requestURL}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var envelope struct {
		Message json.RawMessage `json:"message"`
		Result  string          `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Message) == 0 {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	var asString string
	if err := json.Unmarshal(envelope.Message, &asString); err == nil {
		apiErr.Message = asString
		return apiErr
	}
	var asFields map[string][]string
	if err := json.Unmarshal(envelope.Message, &asFields); err == nil {
		apiErr.FieldErrors = asFields
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(envelope.Message))
	return apiErr
}
