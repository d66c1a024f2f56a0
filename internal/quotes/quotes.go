package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finsim/papertrade/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates the symbol does not resolve to a known instrument
var ErrNotFound = errors.New("symbol not found")

// Provider resolves a ticker symbol to a current quote. Implementations
// must return ErrNotFound for unknown symbols so callers can tell a bad
// symbol apart from an unavailable provider.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// Client fetches quotes from an IEX-style HTTP API:
// GET {base}/stock/{symbol}/quote?token={key}
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Normalize canonicalizes a user-supplied symbol. Empty or overlong
// symbols are rejected before any network call.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", fmt.Errorf("symbol is required")
	}
	if len(s) > 10 {
		return "", fmt.Errorf("symbol too long")
	}
	return s, nil
}

func (c *Client) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol, err := Normalize(symbol)
	if err != nil {
		return models.Quote{}, err
	}

	u := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.BaseURL, url.PathEscape(symbol), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Quote{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return models.Quote{}, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var body struct {
		Symbol      string          `json:"symbol"`
		CompanyName string          `json:"companyName"`
		LatestPrice decimal.Decimal `json:"latestPrice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Quote{}, fmt.Errorf("failed to decode quote: %w", err)
	}
	if body.LatestPrice.Sign() <= 0 {
		return models.Quote{}, fmt.Errorf("quote API returned non-positive price for %s", symbol)
	}

	return models.Quote{
		Symbol:  symbol,
		Company: body.CompanyName,
		Price:   body.LatestPrice,
	}, nil
}
