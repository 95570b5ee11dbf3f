package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waveRider/internal/ports"
)

type mockLogger struct {
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err, "logger is required")

	c, err := New(Config{Logger: &mockLogger{}, UseTestnet: true})
	require.NoError(t, err)
	assert.Equal(t, baseURLTestnet, c.futuresClient.BaseURL)
	assert.Equal(t, "binance", c.Name())

	c, err = New(Config{Logger: &mockLogger{}, UseTestnet: true, BaseURL: "http://localhost:9999"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", c.futuresClient.BaseURL)
}

func TestHandleError(t *testing.T) {
	log := &mockLogger{}
	c, err := New(Config{Logger: log})
	require.NoError(t, err)

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "rate limited", err: &common.APIError{Code: -1003, Message: "Too many requests"}, expected: ports.ErrRateLimited},
		{name: "bad symbol", err: &common.APIError{Code: -1121, Message: "Invalid symbol."}, expected: ports.ErrSymbolNotFound},
		{name: "bad key", err: &common.APIError{Code: -2015, Message: "Invalid API-key"}, expected: ports.ErrAuthenticationFailed},
		{name: "bad parameter", err: &common.APIError{Code: -1102, Message: "Mandatory parameter"}, expected: ports.ErrInvalidRequest},
		{name: "unmapped api error", err: &common.APIError{Code: -9999}, expected: ports.ErrMarketDataUnavailable},
		{name: "deadline", err: fmt.Errorf("get: %w", context.DeadlineExceeded), expected: ports.ErrTimeout},
		{name: "canceled", err: context.Canceled, expected: ports.ErrContextCanceled},
		{name: "refused", err: errors.New("dial tcp: connection refused"), expected: ports.ErrConnectionFailed},
		{name: "other", err: errors.New("boom"), expected: ports.ErrMarketDataUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.handleError(context.Background(), tt.err, "LastPrice")
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.expected)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.Len(t, log.warnMsgs, len(tests))
	assert.NoError(t, c.handleError(context.Background(), nil, "noop"))
}

func TestTranslateBinanceKline(t *testing.T) {
	open := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	bk := &futures.Kline{
		OpenTime:  open.UnixMilli(),
		CloseTime: open.Add(24*time.Hour - time.Millisecond).UnixMilli(),
		Open:      "42000.1",
		High:      "43000",
		Low:       "41500.5",
		Close:     "42800",
		Volume:    "1234.5",
	}

	k, err := translateBinanceKline(bk, "BTCUSDT", "1d")
	require.NoError(t, err)
	assert.Equal(t, open, k.OpenTime)
	assert.Equal(t, 43000.0, k.High)
	assert.Equal(t, 41500.5, k.Low)
	assert.Equal(t, 42800.0, k.Close)
	assert.Equal(t, "BTCUSDT", k.Symbol)
	assert.True(t, k.IsFinal)

	bk.Close = "n/a"
	_, err = translateBinanceKline(bk, "BTCUSDT", "1d")
	assert.Error(t, err)

	_, err = translateBinanceKline(nil, "BTCUSDT", "1d")
	assert.Error(t, err)
}
