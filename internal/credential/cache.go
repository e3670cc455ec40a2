package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	tokenPath = "/v1/security/oauth2/token"

	// DefaultSafetyMargin is subtracted from the provider-declared lifetime so
	// a token is never handed to a request that would outlive it.
	DefaultSafetyMargin = 5 * time.Minute

	refreshTimeout = 15 * time.Second
)

var (
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrUnavailable marks a token exchange that never produced a usable
	// answer: the endpoint could not be reached or replied with garbage.
	ErrUnavailable = errors.New("token endpoint unavailable")
)

// AuthError reports a rejected client-credentials exchange.
type AuthError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *AuthError) Error() string {
	msg := "token exchange rejected: " + e.Status
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// Credential is an opaque bearer token and the instant after which it must
// no longer be used.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// Source hands out bearer tokens for provider calls.
type Source interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	SafetyMargin time.Duration
	HTTPClient   *http.Client
	Now          func() time.Time
}

// Cache keeps one credential shared by every caller and re-authenticates only
// when it is missing or past its expiry. Concurrent refreshes are collapsed
// into a single exchange.
type Cache struct {
	baseURL      string
	clientID     string
	clientSecret string
	margin       time.Duration
	httpClient   *http.Client
	now          func() time.Time

	mu      sync.RWMutex
	current Credential

	group singleflight.Group
}

func NewCache(cfg Config) *Cache {
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: refreshTimeout}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Cache{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		margin:       cfg.SafetyMargin,
		httpClient:   cfg.HTTPClient,
		now:          cfg.Now,
	}
}

func (c *Cache) Token(ctx context.Context) (string, error) {
	if cred, ok := c.cached(); ok {
		return cred.AccessToken, nil
	}

	// The exchange runs detached from any single caller so one cancelled
	// request does not fail the others waiting on the same refresh.
	ch := c.group.DoChan("token", func() (interface{}, error) {
		if cred, ok := c.cached(); ok {
			return cred, nil
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(Credential).AccessToken, nil
	}
}

// Invalidate drops the cached credential so the next Token call
// re-authenticates.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = Credential{}
	c.mu.Unlock()
}

func (c *Cache) cached() (Credential, bool) {
	c.mu.RLock()
	cred := c.current
	c.mu.RUnlock()
	return cred, cred.Valid(c.now())
}

type tokenResponse struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Title            string `json:"title"`
}

func (c *Cache) refresh(ctx context.Context) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	issuedAt := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: token exchange: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Credential{}, fmt.Errorf("%w: read token response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Credential{}, &AuthError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     tokenErrorDetail(body),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Credential{}, fmt.Errorf("%w: decode token response: %w", ErrUnavailable, err)
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return Credential{}, &AuthError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     "token response missing access_token or expires_in",
		}
	}

	cred := Credential{
		AccessToken: tr.AccessToken,
		ExpiresAt:   issuedAt.Add(c.usableLifetime(time.Duration(tr.ExpiresIn) * time.Second)),
	}

	c.mu.Lock()
	c.current = cred
	c.mu.Unlock()

	log.Printf("Provider token refreshed, valid until %s", cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// usableLifetime never lets the margin consume more than half of a short
// lifetime, so very short-lived tokens are still reused.
func (c *Cache) usableLifetime(lifetime time.Duration) time.Duration {
	margin := c.margin
	if margin > lifetime/2 {
		margin = lifetime / 2
	}
	return lifetime - margin
}

func tokenErrorDetail(body []byte) string {
	var er tokenErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return strings.TrimSpace(string(body))
	}
	switch {
	case er.ErrorDescription != "":
		return er.ErrorDescription
	case er.Title != "":
		return er.Title
	default:
		return er.Error
	}
}
