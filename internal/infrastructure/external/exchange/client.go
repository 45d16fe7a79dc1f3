package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/port"
)

const defaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Config holds exchange rate client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches exchange rates over HTTP. Calls are wrapped in a circuit
// breaker so a dead rate provider fails fast instead of stalling every
// submission; failed conversions are never retried here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a new exchange rate client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "exchange-rate-api",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Exchange rate breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cb:         cb,
		logger:     logger,
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Convert converts an amount between currencies using the provider's latest
// rates. Same-currency conversions short-circuit without a network call.
func (c *Client) Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return amount, nil
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetchRate(ctx, fromCurrency, toCurrency)
	})
	if err != nil {
		c.logger.Error("Currency conversion failed",
			zap.String("from", fromCurrency),
			zap.String("to", toCurrency),
			zap.Error(err))
		return 0, fmt.Errorf("convert %s to %s: %w", fromCurrency, toCurrency, err)
	}

	return amount * result.(float64), nil
}

// Rates returns the provider's full latest rate table for a base currency.
func (c *Client) Rates(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetchTable(ctx, baseCurrency)
	})
	if err != nil {
		c.logger.Error("Rate table fetch failed",
			zap.String("base", baseCurrency),
			zap.Error(err))
		return nil, fmt.Errorf("fetch rates for %s: %w", baseCurrency, err)
	}

	return result.(map[string]float64), nil
}

func (c *Client) fetchRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	rates, err := c.fetchTable(ctx, fromCurrency)
	if err != nil {
		return 0, err
	}

	rate, ok := rates[toCurrency]
	if !ok {
		return 0, fmt.Errorf("no rate for currency %q", toCurrency)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid rate %v for currency %q", rate, toCurrency)
	}
	return rate, nil
}

func (c *Client) fetchTable(ctx context.Context, baseCurrency string) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, baseCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}

	return body.Rates, nil
}

// Verify interface compliance
var (
	_ port.CurrencyConverter = (*Client)(nil)
	_ port.RateProvider      = (*Client)(nil)
)
