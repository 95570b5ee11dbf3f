package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"waveRider/internal/csvio"
	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// ImportResult reports what a bulk import wrote.
type ImportResult struct {
	Created int
	Trades  []*TradeView // One per affected trade, recalculated once
}

// AddTransaction records an exit against its trade and recalculates the trade.
func (s *JournalService) AddTransaction(ctx context.Context, txn *domain.Transaction) (*TradeView, error) {
	if txn == nil {
		return nil, fmt.Errorf("nil transaction: %w", ports.ErrInvalidRequest)
	}
	txn.TradeID = strings.TrimSpace(txn.TradeID)

	unlock := s.locks.Lock(txn.TradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, txn.TradeID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTransaction(trade, txn); err != nil {
		return nil, err
	}
	ledger, err := s.txns.ListTransactions(ctx, trade.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", trade.TradeID, err)
	}
	ledger = append(ledger, txn)
	if err := s.validator.ValidateLedger(trade.Quantity, ledger); err != nil {
		return nil, err
	}

	now := s.clock()
	txn.ID = s.newID()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	views, err := s.commit(ctx, ports.LedgerChange{Create: []*domain.Transaction{txn}},
		map[string][]*domain.Transaction{trade.TradeID: ledger}, trade)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to save transaction", map[string]interface{}{"tradeID": txn.TradeID})
		return nil, err
	}
	view := views[0]
	s.logger.Info(ctx, "Transaction added", map[string]interface{}{
		"tradeID":  txn.TradeID,
		"txnID":    txn.ID,
		"reason":   string(txn.Reason),
		"quantity": txn.Quantity,
		"price":    txn.Price.String(),
		"status":   string(trade.Derived.Status),
	})
	return view, nil
}

// UpdateTransaction replaces an existing exit. It cannot move the exit to another trade.
func (s *JournalService) UpdateTransaction(ctx context.Context, txn *domain.Transaction) (*TradeView, error) {
	if txn == nil || txn.ID == "" {
		return nil, fmt.Errorf("transaction id is required: %w", ports.ErrInvalidRequest)
	}

	existing, err := s.findTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if txn.TradeID == "" {
		txn.TradeID = existing.TradeID
	}

	unlock := s.locks.Lock(existing.TradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, existing.TradeID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTransaction(trade, txn); err != nil {
		return nil, err
	}
	ledger, err := s.txns.ListTransactions(ctx, trade.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", trade.TradeID, err)
	}
	updated := make([]*domain.Transaction, 0, len(ledger))
	for _, t := range ledger {
		if t.ID == txn.ID {
			updated = append(updated, txn)
			continue
		}
		updated = append(updated, t)
	}
	if err := s.validator.ValidateLedger(trade.Quantity, updated); err != nil {
		return nil, err
	}

	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = s.clock()
	views, err := s.commit(ctx, ports.LedgerChange{Update: []*domain.Transaction{txn}},
		map[string][]*domain.Transaction{trade.TradeID: updated}, trade)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to update transaction", map[string]interface{}{"txnID": txn.ID})
		return nil, err
	}
	view := views[0]
	s.logger.Info(ctx, "Transaction updated", map[string]interface{}{"tradeID": trade.TradeID, "txnID": txn.ID})
	return view, nil
}

// DeleteTransaction removes an exit and recalculates its trade.
func (s *JournalService) DeleteTransaction(ctx context.Context, id string) (*TradeView, error) {
	existing, err := s.findTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(existing.TradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, existing.TradeID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.txns.ListTransactions(ctx, trade.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", trade.TradeID, err)
	}
	remaining := make([]*domain.Transaction, 0, len(ledger))
	for _, t := range ledger {
		if t.ID != id {
			remaining = append(remaining, t)
		}
	}

	views, err := s.commit(ctx, ports.LedgerChange{Delete: []string{id}},
		map[string][]*domain.Transaction{trade.TradeID: remaining}, trade)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to delete transaction", map[string]interface{}{"txnID": id})
		return nil, err
	}
	view := views[0]
	s.logger.Info(ctx, "Transaction deleted", map[string]interface{}{"tradeID": trade.TradeID, "txnID": id})
	return view, nil
}

// ImportTransactions reads a bulk CSV import. Every row is validated against its trade and the
// ledger it would join before anything is written; one bad row rejects the whole file.
// Each affected trade is recalculated once and stored in the same write as the exits.
func (s *JournalService) ImportTransactions(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := csvio.ReadTransactions(r)
	if err != nil {
		return nil, err
	}

	byTrade := make(map[string][]csvio.TransactionRow)
	var tradeIDs []string
	for _, row := range rows {
		id := row.Transaction.TradeID
		if _, seen := byTrade[id]; !seen {
			tradeIDs = append(tradeIDs, id)
		}
		byTrade[id] = append(byTrade[id], row)
	}
	sort.Strings(tradeIDs)

	unlock := s.locks.LockAll(tradeIDs)
	defer unlock()

	var (
		errs    []error
		trades  = make([]*domain.Trade, 0, len(tradeIDs))
		ledgers = make(map[string][]*domain.Transaction, len(tradeIDs))
		batch   = make([]*domain.Transaction, 0, len(rows))
	)
	for _, id := range tradeIDs {
		trade, err := s.trades.FindTrade(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load trade %s: %w", id, err)
		}
		if trade == nil {
			for _, row := range byTrade[id] {
				errs = append(errs, &csvio.RowError{Line: row.Line, Err: fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)})
			}
			continue
		}
		ledger, err := s.txns.ListTransactions(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger for %s: %w", id, err)
		}
		rowsOK := true
		for _, row := range byTrade[id] {
			if row.Ticker != "" && row.Ticker != trade.Symbol {
				errs = append(errs, &csvio.RowError{Line: row.Line, Err: fmt.Errorf("ticker %s does not match trade symbol %s: %w",
					row.Ticker, trade.Symbol, ports.ErrInvalidRequest)})
				rowsOK = false
				continue
			}
			if err := s.validator.ValidateTransaction(trade, row.Transaction); err != nil {
				errs = append(errs, &csvio.RowError{Line: row.Line, Err: err})
				rowsOK = false
				continue
			}
			ledger = append(ledger, row.Transaction)
		}
		if !rowsOK {
			continue
		}
		if err := s.validator.ValidateLedger(trade.Quantity, ledger); err != nil {
			errs = append(errs, fmt.Errorf("trade %s: %w", id, err))
			continue
		}
		trades = append(trades, trade)
		ledgers[id] = ledger
	}
	if len(errs) > 0 {
		s.logger.Warn(ctx, "Transaction import rejected", map[string]interface{}{"rows": len(rows), "errors": len(errs)})
		return nil, errors.Join(errs...)
	}

	now := s.clock()
	for _, row := range rows {
		txn := row.Transaction
		txn.ID = s.newID()
		txn.CreatedAt = now
		txn.UpdatedAt = now
		batch = append(batch, txn)
	}
	views, err := s.commit(ctx, ports.LedgerChange{Create: batch}, ledgers, trades...)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to save imported transactions", map[string]interface{}{"rows": len(batch)})
		return nil, err
	}

	result := &ImportResult{Created: len(batch), Trades: views}
	s.logger.Info(ctx, "Transactions imported", map[string]interface{}{"created": result.Created, "trades": len(tradeIDs)})
	return result, nil
}

// ExportTransactions writes a trade's ledger in the import layout.
func (s *JournalService) ExportTransactions(ctx context.Context, tradeID string, w io.Writer) error {
	trade, err := s.loadTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	ledger, err := s.txns.ListTransactions(ctx, tradeID)
	if err != nil {
		return fmt.Errorf("failed to load ledger for %s: %w", tradeID, err)
	}
	return csvio.WriteTransactions(w, trade.Symbol, ledger)
}

func (s *JournalService) findTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	txn, err := s.txns.FindTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	if txn == nil {
		return nil, fmt.Errorf("transaction %s: %w", id, ports.ErrNotFound)
	}
	return txn, nil
}

// GetTransaction returns a single exit.
func (s *JournalService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, id)
}

// sortLedger orders exits the way the store lists them: by exit date, then ID.
func sortLedger(ledger []*domain.Transaction) {
	sort.SliceStable(ledger, func(i, j int) bool {
		a, b := ledger[i], ledger[j]
		if !a.ExitDate.Equal(b.ExitDate) {
			return a.ExitDate.Before(b.ExitDate)
		}
		return a.ID < b.ID
	})
}
