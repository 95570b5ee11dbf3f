package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"waveRider/internal/csvio"
	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// RefreshResult is the outcome of refreshing one trade.
type RefreshResult struct {
	TradeID string
	View    *TradeView
	Err     error
}

// RefreshTrade re-fetches current market data for one trade and recalculates it.
// Only the current-* fields change. A failed fetch leaves them unknown and the trade is
// still saved, so price-dependent fields degrade while ledger and entry values stay intact.
func (s *JournalService) RefreshTrade(ctx context.Context, tradeID string) (*TradeView, error) {
	if !s.market.Enabled() {
		return nil, fmt.Errorf("refresh %s: no market data provider configured: %w", tradeID, ports.ErrMarketDataUnavailable)
	}

	unlock := s.locks.Lock(tradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, trade)
}

func (s *JournalService) refresh(ctx context.Context, trade *domain.Trade) (*TradeView, error) {
	current, err := s.market.Current(ctx, trade.Symbol, s.clock())
	if err != nil {
		s.logger.Warn(ctx, "Market data refresh failed", map[string]interface{}{
			"tradeID": trade.TradeID, "symbol": trade.Symbol, "error": err.Error(),
		})
	}
	trade.RefreshMarket(current)

	view, err := s.recalculateAndSave(ctx, trade)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Market data refreshed", map[string]interface{}{
		"tradeID": trade.TradeID,
		"price":   nullString(current.Price),
		"atr":     nullString(current.Volatility),
	})
	return view, nil
}

// RefreshAll refreshes every trade that still holds shares, a bounded number at a time.
// Per-trade failures are reported in the results and do not stop the others.
func (s *JournalService) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	if !s.market.Enabled() {
		return nil, fmt.Errorf("refresh: no market data provider configured: %w", ports.ErrMarketDataUnavailable)
	}

	trades, err := s.trades.ListTrades(ctx, ports.TradeFilter{})
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make([]RefreshResult, 0, len(trades))
	)
	var eg errgroup.Group
	eg.SetLimit(s.cfg.RefreshConcurrency)
	for _, t := range trades {
		if !t.IsOpen() {
			continue
		}
		id := t.TradeID
		eg.Go(func() error {
			view, err := s.RefreshTrade(ctx, id)
			mu.Lock()
			results = append(results, RefreshResult{TradeID: id, View: view, Err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].TradeID < results[j].TradeID })

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("refresh interrupted: %w: %w", ports.ErrContextCanceled, err)
	}
	s.logger.Info(ctx, "Refresh complete", map[string]interface{}{"trades": len(results)})
	return results, nil
}

// ExportTrades writes the matching trades, with every derived field, as CSV.
func (s *JournalService) ExportTrades(ctx context.Context, filter ports.TradeFilter, w io.Writer) error {
	views, err := s.ListTrades(ctx, filter)
	if err != nil {
		return err
	}
	trades := make([]*domain.Trade, len(views))
	for i, v := range views {
		trades[i] = v.Trade
	}
	return csvio.WriteTrades(w, trades)
}
