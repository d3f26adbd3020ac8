// Package panel drives the hosting provider's web control panel.
package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"arkman.dev/cli/internal/application/ports"
	"arkman.dev/cli/internal/pkg/json"
)

const (
	loginPagePath = "/main/index/"
	loginPath     = "/account/login/ajax"
	restartPath   = "/servers/control/action/%s/restart"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	csrfPattern = regexp.MustCompile(`<meta name="CSRF_TOKEN" content="([^"]+)"`)

	// ErrNotLoggedIn is returned by Restart before a successful Login.
	ErrNotLoggedIn = errors.New("not logged in to the panel")
	// ErrNoCSRFToken is returned when the login page carries no CSRF token.
	ErrNoCSRFToken = errors.New("failed to retrieve a CSRF token")
)

// Credentials identify the operator's panel account
type Credentials struct {
	BaseURL   string
	Email     string
	Password  string
	UserAgent string
}

// RetryPolicy defines retry behavior for idempotent panel requests
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns the retry policy used for the login page
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

func (p *RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * float64(attempt) * p.Multiplier)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Gateway implements ports.HostingPanelGateway over the panel's HTML and
// AJAX endpoints. The session lives in a cookie jar.
type Gateway struct {
	creds       Credentials
	httpClient  *http.Client
	retryPolicy *RetryPolicy
	logger      ports.LoggingGateway

	mu      sync.RWMutex
	headers http.Header
}

// NewGateway creates a new panel gateway
func NewGateway(creds Credentials, timeout time.Duration, logger ports.LoggingGateway) *Gateway {
	jar, _ := cookiejar.New(nil)
	if creds.UserAgent == "" {
		creds.UserAgent = DefaultUserAgent
	}
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")

	return &Gateway{
		creds: creds,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		retryPolicy: DefaultRetryPolicy(),
		logger:      logger,
	}
}

// Login fetches the landing page for its CSRF token and posts the account
// form. The token and cookies are reused by later requests.
func (g *Gateway) Login(ctx context.Context) error {
	if g.creds.BaseURL == "" {
		return fmt.Errorf("panel base URL is not configured")
	}

	loginPage := g.creds.BaseURL + loginPagePath

	var token string
	err := g.executeWithRetry(ctx, func() error {
		body, _, err := g.do(ctx, http.MethodGet, loginPage, nil, nil)
		if err != nil {
			return err
		}
		m := csrfPattern.FindStringSubmatch(body)
		if m == nil {
			return ErrNoCSRFToken
		}
		token = m[1]
		return nil
	})
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	headers.Set("Origin", g.creds.BaseURL)
	headers.Set("Referer", loginPage)
	headers.Set("User-Agent", g.creds.UserAgent)
	headers.Set("X-CSRF-Token", token)
	headers.Set("X-Requested-With", "XMLHttpRequest")

	form := url.Values{
		"email":                {g.creds.Email},
		"password":             {g.creds.Password},
		"google_code_auth":     {""},
		"g-recaptcha-response": {""},
		"remember_auth_user":   {"remember-me"},
	}

	body, status, err := g.do(ctx, http.MethodPost, g.creds.BaseURL+loginPath, headers, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("login failed: %s", strings.TrimSpace(body))
	}

	g.mu.Lock()
	g.headers = headers
	g.mu.Unlock()

	g.logger.Log(ports.LogLevelInfo, "Logged in to hosting panel", map[string]interface{}{
		"base_url": g.creds.BaseURL,
	})
	return nil
}

// Restart posts the restart action for one server. Non-2xx answers are not
// errors; they are reported through the response.
func (g *Gateway) Restart(ctx context.Context, panelID string) (*ports.PanelResponse, error) {
	g.mu.RLock()
	headers := g.headers.Clone()
	g.mu.RUnlock()
	if headers == nil {
		return nil, ErrNotLoggedIn
	}

	endpoint := g.creds.BaseURL + fmt.Sprintf(restartPath, url.PathEscape(panelID))
	body, status, err := g.do(ctx, http.MethodPost, endpoint, headers, nil)
	if err != nil {
		return nil, fmt.Errorf("restart request for server %s failed: %w", panelID, err)
	}

	return &ports.PanelResponse{
		ServerID:   panelID,
		StatusCode: status,
		Message:    Summarize(body),
	}, nil
}

// Summarize turns a control action body into a one-line message taken from
// its "success" or "error" field.
func Summarize(body string) string {
	if strings.TrimSpace(body) == "" {
		return "(empty response body)"
	}

	var answer map[string]interface{}
	if err := json.UnmarshalString(body, &answer); err != nil {
		return fmt.Sprintf("(could not parse response: %v): %s", err, body)
	}
	if v, ok := answer["success"]; ok {
		return fmt.Sprint(v)
	}
	if v, ok := answer["error"]; ok {
		return fmt.Sprint(v)
	}
	return "(no success or error message in response)"
}

func (g *Gateway) do(ctx context.Context, method, endpoint string, headers http.Header, body io.Reader) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", g.creds.UserAgent)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	g.logger.LogDebug("Panel request", map[string]interface{}{
		"method":  method,
		"url":     endpoint,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	})
	return string(data), resp.StatusCode, nil
}

// executeWithRetry retries fn with backoff. A missing CSRF token is final.
func (g *Gateway) executeWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < g.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.retryPolicy.delay(attempt)
			g.logger.Log(ports.LogLevelDebug, "Retrying panel request", map[string]interface{}{
				"attempt": attempt + 1,
				"delay":   delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrNoCSRFToken) || ctx.Err() != nil {
			break
		}
	}
	return lastErr
}

var _ ports.HostingPanelGateway = (*Gateway)(nil)
