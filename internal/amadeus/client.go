package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	TestBaseURL       = "https://test.api.amadeus.com"
	ProductionBaseURL = "https://api.amadeus.com"
)

// BaseURLFor maps an environment name ("test" or "production") to its API
// host. An empty name selects the test environment.
func BaseURLFor(env string) (string, error) {
	switch env {
	case "", "test":
		return TestBaseURL, nil
	case "production":
		return ProductionBaseURL, nil
	default:
		return "", fmt.Errorf("unknown amadeus environment %q", env)
	}
}

// ErrNotFound is returned when a lookup yields no matching record.
var ErrNotFound = errors.New("amadeus: not found")

// APIError is an error response from the Amadeus API.
type APIError struct {
	StatusCode int
	Errors     []ErrorEntry
}

// ErrorEntry is one element of an Amadeus "errors" array.
type ErrorEntry struct {
	Status int    `json:"status"`
	Code   int    `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("amadeus api error: status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		s := entry.Title
		if entry.Detail != "" {
			s += ": " + entry.Detail
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("amadeus api error: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// Client talks to the Amadeus self-service REST API using the OAuth2
// client-credentials flow.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client

	limiter *rate.Limiter
	tokens  singleflight.Group

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a client with optional proxy support. Requests are
// paced to the test environment's limit of 10 transactions per second.
func NewClient(baseURL, clientID, clientSecret, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = TestBaseURL
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		tok := c.accessToken
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.tokens.Do("token", func() (interface{}, error) {
		return c.refreshToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	// Refresh slightly early so a token never expires mid-request.
	ttl := time.Duration(result.ExpiresIn-30) * time.Second
	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(ttl)
	c.mu.Unlock()
	return result.AccessToken, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	tok, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/vnd.amadeus+json, application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.Lock()
			c.accessToken = ""
			c.mu.Unlock()
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Errors []ErrorEntry `json:"errors"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
