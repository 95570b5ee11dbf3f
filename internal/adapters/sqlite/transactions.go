package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

const transactionColumns = `id, trade_id, exit_date, reason, quantity, price, fee, note, created_at, updated_at`

// --- TransactionRepository Implementation ---

// ApplyLedgerChange writes exits and the trades recalculated from them in one database transaction.
func (r *Repository) ApplyLedgerChange(ctx context.Context, change ports.LedgerChange) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, txn := range change.Create {
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return err
			}
		}
		for _, txn := range change.Update {
			if err := updateTransaction(ctx, tx, txn); err != nil {
				return err
			}
		}
		for _, id := range change.Delete {
			if err := deleteTransaction(ctx, tx, id); err != nil {
				return err
			}
		}
		for _, trade := range change.Trades {
			if err := updateTrade(ctx, tx, trade); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug(ctx, "Ledger change applied", map[string]interface{}{
		"created": len(change.Create),
		"updated": len(change.Update),
		"deleted": len(change.Delete),
		"trades":  len(change.Trades),
	})
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, txn *domain.Transaction) error {
	const query = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now

	_, err := db.ExecContext(ctx, query,
		txn.ID, txn.TradeID, txn.ExitDate.Format(dateLayout), string(txn.Reason), txn.Quantity,
		txn.Price, txn.Fee, txn.Note, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s for trade %s: %w", txn.ID, txn.TradeID, mapConstraintError(err, ports.ErrQueryFailed))
	}
	return nil
}

// updateTransaction modifies an existing transaction. The owning trade cannot change.
func updateTransaction(ctx context.Context, db execer, txn *domain.Transaction) error {
	const query = `
	UPDATE transactions
	SET exit_date = ?, reason = ?, quantity = ?, price = ?, fee = ?, note = ?, updated_at = ?
	WHERE id = ? AND trade_id = ?`

	txn.UpdatedAt = time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		txn.ExitDate.Format(dateLayout), string(txn.Reason), txn.Quantity, txn.Price, txn.Fee, txn.Note, txn.UpdatedAt,
		txn.ID, txn.TradeID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w: %w", txn.ID, ports.ErrUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update transaction %s: %w", txn.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s of trade %s not found for update: %w", txn.ID, txn.TradeID, ports.ErrNotFound)
	}
	return nil
}

func deleteTransaction(ctx context.Context, db execer, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w: %w", id, ports.ErrDeleteFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete transaction %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s not found for delete: %w", id, ports.ErrNotFound)
	}
	return nil
}

// FindTransaction retrieves a transaction by ID.
func (r *Repository) FindTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Transaction not found", map[string]interface{}{"transactionID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query transaction %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return txn, nil
}

// ListTransactions retrieves a trade's ledger in exit order.
func (r *Repository) ListTransactions(ctx context.Context, tradeID string) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE trade_id = ? ORDER BY exit_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions of trade %s: %w: %w", tradeID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	txns := make([]*domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction during ListTransactions: %w", err)
		}
		txns = append(txns, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction scans a row into a domain.Transaction.
func scanTransaction(s scanner) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	var exitDate, reason string
	err := s.Scan(
		&txn.ID, &txn.TradeID, &exitDate, &reason, &txn.Quantity,
		&txn.Price, &txn.Fee, &txn.Note, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if txn.ExitDate, err = parseDate(exitDate); err != nil {
		return nil, err
	}
	txn.Reason = domain.ExitReason(reason)
	return txn, nil
}
