package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// Config holds the input limits enforced before anything reaches the store.
type Config struct {
	MaxTradeIDLength int
	MaxSymbolLength  int
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{MaxTradeIDLength: 50, MaxSymbolLength: 20}
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]*$`)

// Validator checks trade terms and exit transactions.
type Validator struct {
	config Config
}

// NewValidator creates a new validator instance
func NewValidator(config Config) *Validator {
	def := DefaultConfig()
	if config.MaxTradeIDLength <= 0 {
		config.MaxTradeIDLength = def.MaxTradeIDLength
	}
	if config.MaxSymbolLength <= 0 {
		config.MaxSymbolLength = def.MaxSymbolLength
	}
	return &Validator{config: config}
}

// NormalizeSymbol trims and upper-cases a symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateTerms validates the inputs of a new trade.
func (v *Validator) ValidateTerms(t domain.Terms) error {
	id := strings.TrimSpace(t.TradeID)
	if id == "" {
		return invalid("trade id is required")
	}
	if len(id) > v.config.MaxTradeIDLength {
		return invalid("trade id %q exceeds maximum length %d", id, v.config.MaxTradeIDLength)
	}

	symbol := NormalizeSymbol(t.Symbol)
	if symbol == "" {
		return invalid("symbol is required")
	}
	if len(symbol) > v.config.MaxSymbolLength {
		return invalid("symbol %q exceeds maximum length %d", symbol, v.config.MaxSymbolLength)
	}
	if !symbolPattern.MatchString(symbol) {
		return invalid("symbol %q contains invalid characters", symbol)
	}

	if !t.EntryPrice.IsPositive() {
		return invalid("entry price %s must be positive", t.EntryPrice)
	}
	if t.Quantity <= 0 {
		return invalid("quantity %d must be positive", t.Quantity)
	}
	if t.EntryDate.IsZero() {
		return invalid("entry date is required")
	}

	return v.validateOptional(t.FloorPrice, t.StopOverride, t.PortfolioSize)
}

// ValidateEdit validates the editable fields of an existing trade.
func (v *Validator) ValidateEdit(e domain.TermsEdit) error {
	var floor, override, size decimal.NullDecimal
	if e.FloorPrice != nil {
		floor = *e.FloorPrice
	}
	if e.StopOverride != nil {
		override = *e.StopOverride
	}
	if e.PortfolioSize != nil {
		size = *e.PortfolioSize
	}
	return v.validateOptional(floor, override, size)
}

func (v *Validator) validateOptional(floor, override, size decimal.NullDecimal) error {
	if floor.Valid && !floor.Decimal.IsPositive() {
		return invalid("floor price %s must be positive", floor.Decimal)
	}
	if override.Valid && !override.Decimal.IsPositive() {
		return invalid("stop override %s must be positive", override.Decimal)
	}
	if size.Valid && !size.Decimal.IsPositive() {
		return invalid("portfolio size %s must be positive", size.Decimal)
	}
	return nil
}

// ValidateTransaction validates a single exit against the trade it belongs to.
func (v *Validator) ValidateTransaction(trade *domain.Trade, txn *domain.Transaction) error {
	if txn.TradeID != trade.TradeID {
		return fmt.Errorf("transaction references trade %s, not %s: %w: %w",
			txn.TradeID, trade.TradeID, ports.ErrInvalidRequest, ports.ErrTradeMismatch)
	}
	if txn.Quantity <= 0 {
		return invalid("exit quantity %d must be positive", txn.Quantity)
	}
	if !txn.Price.IsPositive() {
		return invalid("exit price %s must be positive", txn.Price)
	}
	if txn.Fee.IsNegative() {
		return invalid("fee %s must not be negative", txn.Fee)
	}
	if !txn.Reason.Valid() {
		return invalid("exit reason %q is not one of %v", txn.Reason, domain.ExitReasons)
	}
	if txn.ExitDate.IsZero() {
		return invalid("exit date is required")
	}
	if civil(txn.ExitDate).Before(civil(trade.EntryDate)) {
		return invalid("exit date %s is before entry date %s",
			txn.ExitDate.Format(time.DateOnly), trade.EntryDate.Format(time.DateOnly))
	}
	return nil
}

// ValidateLedger checks that the ledger as a whole never exits more shares than were bought.
func (v *Validator) ValidateLedger(quantity int64, txns []*domain.Transaction) error {
	var exited int64
	for _, txn := range txns {
		exited += txn.Quantity
	}
	if exited > quantity {
		return fmt.Errorf("exits total %d shares, only %d bought: %w", exited, quantity, ports.ErrOverExit)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ports.ErrInvalidRequest)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
