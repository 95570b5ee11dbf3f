package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one partial or full exit from a trade.
type Transaction struct {
	ID        string          // Surrogate identifier (ULID)
	TradeID   string          // Owning trade
	ExitDate  time.Time       // Day the shares were exited
	Reason    ExitReason      // Why the shares were exited
	Quantity  int64           // Shares exited
	Price     decimal.Decimal // Exit price per share
	Fee       decimal.Decimal // Optional fee; zero when none was charged
	Note      string          // Optional free text
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Proceeds returns quantity × price − fee, rounded to cents.
func (t *Transaction) Proceeds() decimal.Decimal {
	return decimal.NewFromInt(t.Quantity).Mul(t.Price).Sub(t.Fee).Round(2)
}
