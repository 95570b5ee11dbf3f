package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"waveRider/internal/adapters/logger" // Import the logger package for LogLevel
	"waveRider/internal/indicators"
)

// Market data providers.
const (
	ProviderYahoo   = "yahoo"
	ProviderBinance = "binance"
	ProviderNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // "text" or "json"

	// Market Data
	MarketDataProvider string        // yahoo, binance or none
	HTTPTimeout        time.Duration // Per-request timeout for providers
	YahooBaseURL       string        // Empty uses the public endpoint

	// Binance API (only needed for the binance provider)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Indicator Parameters
	ATRPeriod           int
	ATRSmoothing        indicators.ATRSmoothing
	MAType              indicators.MovingAverageType
	SMAShortPeriod      int
	SMALongPeriod       int
	HistoryLookbackDays int

	// Calculation
	DefaultPortfolioSize decimal.NullDecimal // Used when a trade has no portfolio size of its own
	FloorBufferPct       decimal.Decimal     // Lowers an entry-day-low floor by this percentage

	// Position sizing and limits
	RiskPerTradePct decimal.Decimal
	MaxPositionPct  decimal.Decimal
	MaxOpenTrades   int
	MaxInvestedPct  decimal.Decimal

	// Service
	RefreshConcurrency int
	MaxTradeIDLength   int
	MaxSymbolLength    int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom loads envFile (".env" when empty) and then reads the environment.
// A missing default .env is not an error; a missing explicit file is.
func LoadConfigFrom(envFile string) (*Config, error) {
	if envFile == "" {
		// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/waverider.db")

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be text or json")
	}

	// Market Data
	cfg.MarketDataProvider = strings.ToLower(getEnv("MARKET_DATA_PROVIDER", ProviderYahoo))
	switch cfg.MarketDataProvider {
	case ProviderYahoo, ProviderBinance, ProviderNone:
	default:
		errs = append(errs, fmt.Sprintf("MARKET_DATA_PROVIDER must be one of yahoo, binance, none (got %q)", cfg.MarketDataProvider))
	}

	timeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.YahooBaseURL = getEnv("YAHOO_BASE_URL", "")

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Indicator Parameters
	cfg.ATRPeriod, err = getEnvAsIntRequired("ATR_PERIOD", 14)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ATR_PERIOD: %v", err))
	} else if cfg.ATRPeriod <= 0 {
		errs = append(errs, "ATR_PERIOD must be positive")
	}

	cfg.ATRSmoothing = indicators.ATRSmoothing(strings.ToLower(getEnv("ATR_SMOOTHING", string(indicators.SimpleSmoothing))))
	if cfg.ATRSmoothing != indicators.SimpleSmoothing && cfg.ATRSmoothing != indicators.WilderSmoothing {
		errs = append(errs, "ATR_SMOOTHING must be simple or wilder")
	}

	cfg.MAType = indicators.MovingAverageType(strings.ToUpper(getEnv("MA_TYPE", string(indicators.SimpleMovingAverage))))
	if cfg.MAType != indicators.SimpleMovingAverage && cfg.MAType != indicators.ExponentialMovingAverage {
		errs = append(errs, "MA_TYPE must be sma or ema")
	}

	cfg.SMAShortPeriod, err = getEnvAsIntRequired("SMA_SHORT_PERIOD", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SMA_SHORT_PERIOD: %v", err))
	}
	cfg.SMALongPeriod, err = getEnvAsIntRequired("SMA_LONG_PERIOD", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SMA_LONG_PERIOD: %v", err))
	}
	if cfg.SMAShortPeriod <= 0 || cfg.SMALongPeriod <= 0 {
		errs = append(errs, "moving average periods must be positive")
	} else if cfg.SMAShortPeriod >= cfg.SMALongPeriod {
		errs = append(errs, "SMA_SHORT_PERIOD must be less than SMA_LONG_PERIOD")
	}

	cfg.HistoryLookbackDays, err = getEnvAsIntRequired("HISTORY_LOOKBACK_DAYS", 120)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_LOOKBACK_DAYS: %v", err))
	} else if cfg.HistoryLookbackDays < cfg.SMALongPeriod {
		// Calendar days; weekends and holidays eat into this
		errs = append(errs, "HISTORY_LOOKBACK_DAYS must be at least SMA_LONG_PERIOD")
	}

	// Calculation
	cfg.DefaultPortfolioSize, err = getEnvAsNullDecimal("DEFAULT_PORTFOLIO_SIZE")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_PORTFOLIO_SIZE: %v", err))
	} else if cfg.DefaultPortfolioSize.Valid && !cfg.DefaultPortfolioSize.Decimal.IsPositive() {
		errs = append(errs, "DEFAULT_PORTFOLIO_SIZE must be positive")
	}

	buffer, err := getEnvAsNullDecimal("FLOOR_BUFFER_PCT")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FLOOR_BUFFER_PCT: %v", err))
	} else if buffer.Valid {
		if buffer.Decimal.IsNegative() || buffer.Decimal.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			errs = append(errs, "FLOOR_BUFFER_PCT must be in [0, 100)")
		}
		cfg.FloorBufferPct = buffer.Decimal
	}

	// Position sizing and limits
	cfg.RiskPerTradePct, err = getEnvAsPct("RISK_PER_TRADE_PCT", decimal.NewFromInt(1))
	if err != nil {
		errs = append(errs, err.Error())
	} else if !cfg.RiskPerTradePct.IsPositive() {
		errs = append(errs, "RISK_PER_TRADE_PCT must be positive")
	}
	cfg.MaxPositionPct, err = getEnvAsPct("MAX_POSITION_PCT", decimal.NewFromInt(25))
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.MaxInvestedPct, err = getEnvAsPct("MAX_INVESTED_PCT", decimal.Zero)
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.MaxOpenTrades = getEnvAsInt("MAX_OPEN_TRADES", 0)
	if cfg.MaxOpenTrades < 0 {
		errs = append(errs, "MAX_OPEN_TRADES must not be negative")
	}

	// Service
	cfg.RefreshConcurrency = getEnvAsInt("REFRESH_CONCURRENCY", 4)
	if cfg.RefreshConcurrency <= 0 {
		errs = append(errs, "REFRESH_CONCURRENCY must be positive")
	}
	cfg.MaxTradeIDLength = getEnvAsInt("MAX_TRADE_ID_LENGTH", 50)
	cfg.MaxSymbolLength = getEnvAsInt("MAX_SYMBOL_LENGTH", 20)
	if cfg.MaxTradeIDLength <= 0 || cfg.MaxSymbolLength <= 0 {
		errs = append(errs, "MAX_TRADE_ID_LENGTH and MAX_SYMBOL_LENGTH must be positive")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

// getEnvAsNullDecimal returns an unknown value when key is unset.
func getEnvAsNullDecimal(key string) (decimal.NullDecimal, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid decimal value '%s' for key %s: %w", valueStr, key, err)
	}
	return decimal.NewNullDecimal(value), nil
}

// getEnvAsPct reads a percentage in [0, 100].
func getEnvAsPct(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	v, err := getEnvAsNullDecimal(key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !v.Valid {
		return defaultValue, nil
	}
	if v.Decimal.IsNegative() || v.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Decimal{}, fmt.Errorf("%s must be between 0 and 100", key)
	}
	return v.Decimal, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
