package ports

import (
	"context"

	"waveRider/internal/domain"
)

// TradeFilter narrows ListTrades results. Zero value matches everything.
type TradeFilter struct {
	Status domain.TradeStatus // Empty matches any status
	Symbol string             // Empty matches any symbol
}

// TradeRepository defines the interface for storing and retrieving trades.
type TradeRepository interface {
	// CreateTrade saves a new trade, including its entry snapshot.
	// Returns ErrDuplicateEntry if the trade ID is taken.
	CreateTrade(ctx context.Context, trade *domain.Trade) error
	// UpdateTrade persists editable inputs, current market data and the derived status and
	// remaining shares. The entry snapshot is never written after creation.
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	// DeleteTrade removes a trade and all of its transactions.
	DeleteTrade(ctx context.Context, tradeID string) error
	// FindTrade retrieves a trade by ID.
	// Returns nil, nil if not found.
	FindTrade(ctx context.Context, tradeID string) (*domain.Trade, error)
	// ListTrades retrieves trades matching the filter, ordered by entry date descending.
	ListTrades(ctx context.Context, filter TradeFilter) ([]*domain.Trade, error)
}

// LedgerChange is a set of exit writes stored together with the trades recalculated from them.
type LedgerChange struct {
	Create []*domain.Transaction
	Update []*domain.Transaction // The owning trade of an exit cannot change
	Delete []string              // Transaction IDs
	Trades []*domain.Trade       // Written as UpdateTrade would write them
}

// TransactionRepository defines the interface for storing and retrieving exit transactions.
type TransactionRepository interface {
	// ApplyLedgerChange stores the exit writes and the recalculated trades atomically:
	// either everything is written or nothing is. Returns ErrNotFound if an exit to update
	// or delete, or a trade to update, does not exist.
	ApplyLedgerChange(ctx context.Context, change LedgerChange) error
	// FindTransaction retrieves a transaction by ID.
	// Returns nil, nil if not found.
	FindTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	// ListTransactions retrieves a trade's ledger ordered by exit date, then ID.
	ListTransactions(ctx context.Context, tradeID string) ([]*domain.Transaction, error)
}
