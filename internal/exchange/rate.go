package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultURL quotes EUR in BRL.
	DefaultURL = "https://economia.awesomeapi.com.br/last/EUR-BRL"
	// FallbackRate is used whenever the live quote cannot be obtained.
	FallbackRate = 5.50
	quoteKey     = "EURBRL"
)

// Provider fetches the EUR to home-currency rate. Every call performs a
// fresh fetch; nothing is cached between calls.
type Provider struct {
	URL      string
	Fallback float64
	Client   *http.Client
}

// NewProvider creates a Provider with optional proxy support.
func NewProvider(endpoint string, fallback float64, proxyURL string) *Provider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if fallback <= 0 {
		fallback = FallbackRate
	}
	return &Provider{
		URL:      endpoint,
		Fallback: fallback,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
	}
}

// CurrentRate returns the live rate, or the fallback constant on any failure.
func (p *Provider) CurrentRate(ctx context.Context) float64 {
	rate, _ := p.Rate(ctx)
	return rate
}

// Rate is CurrentRate that also reports whether the live quote was used.
func (p *Provider) Rate(ctx context.Context) (float64, bool) {
	rate, err := p.fetch(ctx)
	if err != nil {
		log.Printf("[WARN] exchange rate fetch failed: %v, using fallback %.2f", err, p.Fallback)
		return p.Fallback, false
	}
	return rate, true
}

type quote struct {
	Code      string `json:"code"`
	CodeIn    string `json:"codein"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	Timestamp string `json:"timestamp"`
}

func (p *Provider) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read quote: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch quote: status %d, body: %s", resp.StatusCode, string(body))
	}

	var quotes map[string]quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return 0, fmt.Errorf("decode quote: %w", err)
	}
	q, ok := quotes[quoteKey]
	if !ok {
		return 0, fmt.Errorf("quote %s missing from response", quoteKey)
	}
	rate, err := strconv.ParseFloat(q.Bid, 64)
	if err != nil {
		return 0, fmt.Errorf("parse bid %q: %w", q.Bid, err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, fmt.Errorf("invalid bid %v", rate)
	}
	return rate, nil
}
