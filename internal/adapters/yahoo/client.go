// Package yahoo reads prices and daily candles from the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

const (
	defaultBaseURL   = "https://query2.finance.yahoo.com"
	defaultUserAgent = "waverider/1.0"
	dailyInterval    = "1d"
)

// Config holds configuration for the Yahoo client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration // How long a last price is reused; zero disables caching
	UserAgent string
	Logger    ports.Logger
}

type cachedQuote struct {
	price   float64
	fetched time.Time
}

// Client implements ports.MarketDataSource over the chart endpoint.
type Client struct {
	baseURL   string
	userAgent string
	ttl       time.Duration
	cli       *http.Client
	logger    ports.Logger

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

// New creates a Yahoo chart client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: ua,
		ttl:       cfg.CacheTTL,
		cli:       &http.Client{Timeout: timeout},
		logger:    cfg.Logger,
		cache:     make(map[string]cachedQuote),
	}, nil
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "yahoo"
}

// LastPrice returns the regular market price, falling back to the last non-null close.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("empty symbol: %w", ports.ErrInvalidRequest)
	}

	if c.ttl > 0 {
		c.mu.RLock()
		if q, ok := c.cache[symbol]; ok && time.Since(q.fetched) < c.ttl {
			c.mu.RUnlock()
			return q.price, nil
		}
		c.mu.RUnlock()
	}

	params := url.Values{"interval": {dailyInterval}, "range": {"5d"}}
	result, err := c.chart(ctx, symbol, params)
	if err != nil {
		return 0, err
	}

	price := result.Get("meta.regularMarketPrice").Float()
	if price <= 0 {
		closes := result.Get("indicators.quote.0.close").Array()
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i].Type == gjson.Number && closes[i].Float() > 0 {
				price = closes[i].Float()
				break
			}
		}
	}
	if price <= 0 {
		return 0, fmt.Errorf("yahoo: no price for %s: %w", symbol, ports.ErrSymbolNotFound)
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.cache[symbol] = cachedQuote{price: price, fetched: time.Now()}
		c.mu.Unlock()
	}
	return price, nil
}

// DailyKlines returns daily candles with open time in [from, to], oldest first.
// Rows with a missing open, high, low or close are skipped.
func (c *Client) DailyKlines(ctx context.Context, symbol string, from, to time.Time) ([]*domain.Kline, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", ports.ErrInvalidRequest)
	}

	params := url.Values{
		"interval": {dailyInterval},
		"period1":  {strconv.FormatInt(from.Unix(), 10)},
		"period2":  {strconv.FormatInt(to.Unix(), 10)},
	}
	result, err := c.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	klines := make([]*domain.Kline, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(opens) || i >= len(highs) || i >= len(lows) || i >= len(closes) {
			break
		}
		if !numeric(opens[i], highs[i], lows[i], closes[i]) {
			continue
		}
		open := time.Unix(ts.Int(), 0).UTC()
		if open.Before(from) || open.After(to) {
			continue
		}
		var volume float64
		if i < len(volumes) {
			volume = volumes[i].Float()
		}
		klines = append(klines, &domain.Kline{
			OpenTime:  open,
			CloseTime: open.Add(24*time.Hour - time.Millisecond),
			Symbol:    symbol,
			Interval:  dailyInterval,
			Open:      opens[i].Float(),
			High:      highs[i].Float(),
			Low:       lows[i].Float(),
			Close:     closes[i].Float(),
			Volume:    volume,
			IsFinal:   true,
		})
	}
	return klines, nil
}

// chart calls /v8/finance/chart/{symbol} and returns chart.result[0].
func (c *Client) chart(ctx context.Context, symbol string, params url.Values) (gjson.Result, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("yahoo: build request: %w: %w", ports.ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return gjson.Result{}, c.handleError(ctx, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return gjson.Result{}, c.handleError(ctx, symbol, err)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, c.statusError(ctx, symbol, resp.StatusCode, body)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("yahoo: invalid JSON for %s: %w", symbol, ports.ErrMarketDataUnavailable)
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		if desc := gjson.GetBytes(body, "chart.error.description").String(); desc != "" {
			return gjson.Result{}, fmt.Errorf("yahoo: %s: %w", desc, ports.ErrSymbolNotFound)
		}
		return gjson.Result{}, fmt.Errorf("yahoo: no result for %s: %w", symbol, ports.ErrSymbolNotFound)
	}
	return result, nil
}

func (c *Client) statusError(ctx context.Context, symbol string, status int, body []byte) error {
	var mapped error
	switch status {
	case http.StatusNotFound:
		mapped = ports.ErrSymbolNotFound
	case http.StatusTooManyRequests:
		mapped = ports.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		mapped = ports.ErrAuthenticationFailed
	default:
		mapped = ports.ErrMarketDataUnavailable
	}
	desc := gjson.GetBytes(body, "chart.error.description").String()
	c.logger.Warn(ctx, "Yahoo chart request failed", map[string]interface{}{
		"symbol": symbol, "status": status, "description": desc,
	})
	return fmt.Errorf("yahoo: http %d for %s: %w", status, symbol, mapped)
}

func (c *Client) handleError(ctx context.Context, symbol string, err error) error {
	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("yahoo: %s: %w: %w", symbol, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("yahoo: %s: %w: %w", symbol, ports.ErrContextCanceled, err)
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			finalErr = fmt.Errorf("yahoo: %s: %w: %w", symbol, ports.ErrTimeout, err)
		} else {
			finalErr = fmt.Errorf("yahoo: %s: %w: %w", symbol, ports.ErrConnectionFailed, err)
		}
	}
	c.logger.Warn(ctx, "Yahoo chart request failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
	return finalErr
}

func numeric(values ...gjson.Result) bool {
	for _, v := range values {
		if v.Type != gjson.Number {
			return false
		}
	}
	return true
}
