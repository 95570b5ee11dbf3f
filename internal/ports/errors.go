package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Ledger Errors
	ErrOverExit      = errors.New("exited quantity exceeds entry quantity")
	ErrTradeMismatch = errors.New("transaction belongs to a different trade")

	// Market Data Errors
	ErrMarketDataUnavailable = errors.New("market data provider is unavailable")
	ErrConnectionFailed      = errors.New("failed to connect to the market data provider")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("market data authentication failed (check API keys)")
	ErrSymbolNotFound        = errors.New("symbol not found at the market data provider")
	ErrInsufficientHistory   = errors.New("not enough price history")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
