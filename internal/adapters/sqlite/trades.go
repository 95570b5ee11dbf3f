package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

const tradeColumns = `
	trade_id, symbol, entry_price, quantity, entry_date, floor_price, stop_override, portfolio_size,
	entry_volatility, entry_ma_long, entry_captured_at,
	current_price, current_volatility, current_ma_short, current_ma_long, market_updated_at,
	status, remaining_shares, created_at, updated_at`

// --- TradeRepository Implementation ---

// CreateTrade saves a new trade together with its entry snapshot.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	const query = `INSERT INTO trades (` + tradeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now
	entry := trade.Entry()

	_, err := r.db.ExecContext(ctx, query,
		trade.TradeID, trade.Symbol, trade.EntryPrice, trade.Quantity, trade.EntryDate.Format(dateLayout),
		trade.FloorPrice, trade.StopOverride, trade.PortfolioSize,
		entry.Volatility(), entry.MALong(), nullTime(entry.CapturedAt()),
		trade.Market.Price, trade.Market.Volatility, trade.Market.MAShort, trade.Market.MALong, nullTime(trade.Market.UpdatedAt),
		string(trade.Derived.Status), trade.Derived.RemainingShares, trade.CreatedAt, trade.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", trade.TradeID, mapConstraintError(err, ports.ErrQueryFailed))
	}
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": trade.TradeID, "symbol": trade.Symbol})
	return nil
}

// UpdateTrade modifies the editable inputs, market data and status of an existing trade.
// Symbol, entry terms and the entry snapshot are left untouched.
func (r *Repository) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	if err := updateTrade(ctx, r.db, trade); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.TradeID, "status": trade.Derived.Status})
	return nil
}

func updateTrade(ctx context.Context, db execer, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET floor_price = ?, stop_override = ?, portfolio_size = ?,
	    current_price = ?, current_volatility = ?, current_ma_short = ?, current_ma_long = ?, market_updated_at = ?,
	    status = ?, remaining_shares = ?, updated_at = ?
	WHERE trade_id = ?`

	trade.UpdatedAt = time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		trade.FloorPrice, trade.StopOverride, trade.PortfolioSize,
		trade.Market.Price, trade.Market.Volatility, trade.Market.MAShort, trade.Market.MALong, nullTime(trade.Market.UpdatedAt),
		string(trade.Derived.Status), trade.Derived.RemainingShares, trade.UpdatedAt,
		trade.TradeID)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w: %w", trade.TradeID, ports.ErrUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade %s: %w", trade.TradeID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for update: %w", trade.TradeID, ports.ErrNotFound)
	}
	return nil
}

// DeleteTrade removes a trade and its transactions in one database transaction.
func (r *Repository) DeleteTrade(ctx context.Context, tradeID string) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE trade_id = ?`, tradeID); err != nil {
			return fmt.Errorf("failed to delete transactions of trade %s: %w: %w", tradeID, ports.ErrDeleteFailed, err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE trade_id = ?`, tradeID)
		if err != nil {
			return fmt.Errorf("failed to delete trade %s: %w: %w", tradeID, ports.ErrDeleteFailed, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("trade %s not found for delete: %w", tradeID, ports.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": tradeID})
	return nil
}

// FindTrade retrieves a trade by ID.
func (r *Repository) FindTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE trade_id = ?`

	trade, err := scanTrade(r.db.QueryRowContext(ctx, query, tradeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found", map[string]interface{}{"tradeID": tradeID})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade %s: %w: %w", tradeID, ports.ErrQueryFailed, err)
	}
	return trade, nil
}

// ListTrades retrieves trades matching the filter, newest entry first.
func (r *Repository) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]*domain.Trade, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, filter.Symbol)
	}

	query := `SELECT ` + tradeColumns + ` FROM trades`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date DESC, trade_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during ListTrades: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// scanTrade scans a row into a domain.Trade.
func scanTrade(s scanner) (*domain.Trade, error) {
	var (
		terms                domain.Terms
		entryDate            string
		entryVol, entryMA    decimal.NullDecimal
		capturedAt           sql.NullTime
		market               domain.CurrentMarket
		marketUpdatedAt      sql.NullTime
		status               string
		remaining            int64
		createdAt, updatedAt time.Time
	)
	err := s.Scan(
		&terms.TradeID, &terms.Symbol, &terms.EntryPrice, &terms.Quantity, &entryDate,
		&terms.FloorPrice, &terms.StopOverride, &terms.PortfolioSize,
		&entryVol, &entryMA, &capturedAt,
		&market.Price, &market.Volatility, &market.MAShort, &market.MALong, &marketUpdatedAt,
		&status, &remaining, &createdAt, &updatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}

	if terms.EntryDate, err = parseDate(entryDate); err != nil {
		return nil, err
	}
	if marketUpdatedAt.Valid {
		market.UpdatedAt = marketUpdatedAt.Time
	}
	var captured time.Time
	if capturedAt.Valid {
		captured = capturedAt.Time
	}

	trade := domain.NewTrade(terms, domain.NewEntrySnapshot(entryVol, entryMA, captured), market)
	trade.Derived.Status = domain.TradeStatus(status)
	trade.Derived.RemainingShares = remaining
	trade.CreatedAt = createdAt
	trade.UpdatedAt = updatedAt
	return trade, nil
}
