package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/analytics"
	"waveRider/internal/calc"
	"waveRider/internal/domain"
	"waveRider/internal/ports"
	"waveRider/internal/validation"
)

// MarketData supplies current quotes and the one-time entry snapshot.
// *marketdata.Service satisfies it.
type MarketData interface {
	Enabled() bool
	Current(ctx context.Context, symbol string, asOf time.Time) (domain.CurrentMarket, error)
	EntrySnapshot(ctx context.Context, symbol string, entryDate, now time.Time) (domain.EntrySnapshot, error)
}

// Config holds service-level tuning.
type Config struct {
	RefreshConcurrency int // Max trades refreshed in parallel by RefreshAll
}

// Deps are the collaborators of a JournalService.
type Deps struct {
	Trades       ports.TradeRepository
	Transactions ports.TransactionRepository
	Market       MarketData
	Engine       *calc.Engine
	Validator    *validation.Validator
	Logger       ports.Logger
	Clock        func() time.Time // Defaults to time.Now
	NewID        func() string    // Transaction ID source
}

// TradeView is a trade with its ledger and the data-quality issues of its last recalculation.
type TradeView struct {
	Trade        *domain.Trade
	Transactions []*domain.Transaction
	Issues       []calc.Issue
}

// JournalService orchestrates the trade journal: every mutation validates its input,
// recalculates the affected trade and persists the result.
type JournalService struct {
	cfg       Config
	trades    ports.TradeRepository
	txns      ports.TransactionRepository
	market    MarketData
	engine    *calc.Engine
	validator *validation.Validator
	logger    ports.Logger
	clock     func() time.Time
	newID     func() string

	locks *keyedMutex // Serialises mutations per trade
}

// NewJournalService creates a new application service instance.
func NewJournalService(deps Deps, cfg Config) (*JournalService, error) {
	// Validate dependencies
	if deps.Trades == nil || deps.Transactions == nil || deps.Market == nil ||
		deps.Engine == nil || deps.Validator == nil || deps.Logger == nil || deps.NewID == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService: %w", ports.ErrConfigurationError)
	}
	if cfg.RefreshConcurrency <= 0 {
		cfg.RefreshConcurrency = 4
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &JournalService{
		cfg:       cfg,
		trades:    deps.Trades,
		txns:      deps.Transactions,
		market:    deps.Market,
		engine:    deps.Engine,
		validator: deps.Validator,
		logger:    deps.Logger,
		clock:     clock,
		newID:     deps.NewID,
		locks:     newKeyedMutex(),
	}, nil
}

// CreateTrade validates and stores a new trade. The entry snapshot and current market data are
// fetched once here; a failed fetch leaves those values unknown rather than failing the call.
func (s *JournalService) CreateTrade(ctx context.Context, terms domain.Terms) (*TradeView, error) {
	terms.TradeID = strings.TrimSpace(terms.TradeID)
	terms.Symbol = validation.NormalizeSymbol(terms.Symbol)
	if err := s.validator.ValidateTerms(terms); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(terms.TradeID)
	defer unlock()

	existing, err := s.trades.FindTrade(ctx, terms.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check trade %s: %w", terms.TradeID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("trade %s already exists: %w", terms.TradeID, ports.ErrDuplicateEntry)
	}

	now := s.clock()
	entry, current := s.fetchMarket(ctx, terms, now)

	trade := domain.NewTrade(terms, entry, current)
	res, err := s.engine.Recalculate(trade, nil, now)
	if err != nil {
		return nil, err
	}
	trade.CreatedAt = now
	trade.UpdatedAt = now

	if err := s.trades.CreateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to save trade", map[string]interface{}{"tradeID": trade.TradeID})
		return nil, err
	}

	s.logger.Info(ctx, "Trade created", map[string]interface{}{
		"tradeID":    trade.TradeID,
		"symbol":     trade.Symbol,
		"entryPrice": trade.EntryPrice.String(),
		"quantity":   trade.Quantity,
		"stop3":      nullString(trade.Derived.Stop3),
	})
	s.logIssues(ctx, trade.TradeID, res.Issues)
	return &TradeView{Trade: trade, Issues: res.Issues}, nil
}

func (s *JournalService) fetchMarket(ctx context.Context, terms domain.Terms, now time.Time) (domain.EntrySnapshot, domain.CurrentMarket) {
	if !s.market.Enabled() {
		s.logger.Info(ctx, "No market data provider configured; indicators left unknown", map[string]interface{}{
			"tradeID": terms.TradeID,
		})
		return domain.NewEntrySnapshot(unknown(), unknown(), now), domain.CurrentMarket{}
	}

	entry, err := s.market.EntrySnapshot(ctx, terms.Symbol, terms.EntryDate, now)
	if err != nil {
		s.logger.Warn(ctx, "Entry snapshot unavailable", map[string]interface{}{
			"tradeID": terms.TradeID, "symbol": terms.Symbol, "error": err.Error(),
		})
	}
	current, err := s.market.Current(ctx, terms.Symbol, now)
	if err != nil {
		s.logger.Warn(ctx, "Current market data unavailable", map[string]interface{}{
			"tradeID": terms.TradeID, "symbol": terms.Symbol, "error": err.Error(),
		})
	}
	return entry, current
}

// UpdateTrade applies an edit to the optional inputs and recalculates.
func (s *JournalService) UpdateTrade(ctx context.Context, tradeID string, edit domain.TermsEdit) (*TradeView, error) {
	if err := s.validator.ValidateEdit(edit); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(tradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	trade.ApplyEdit(edit)

	view, err := s.recalculateAndSave(ctx, trade)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Trade updated", map[string]interface{}{"tradeID": tradeID})
	return view, nil
}

// DeleteTrade removes a trade and its ledger.
func (s *JournalService) DeleteTrade(ctx context.Context, tradeID string) error {
	unlock := s.locks.Lock(tradeID)
	defer unlock()

	if err := s.trades.DeleteTrade(ctx, tradeID); err != nil {
		return err
	}
	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{"tradeID": tradeID})
	return nil
}

// GetTrade returns a trade with freshly calculated derived fields.
func (s *JournalService) GetTrade(ctx context.Context, tradeID string) (*TradeView, error) {
	trade, err := s.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return s.recalculate(ctx, trade)
}

// ListTrades returns the trades matching filter with freshly calculated derived fields.
func (s *JournalService) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]*TradeView, error) {
	filter.Symbol = validation.NormalizeSymbol(filter.Symbol)
	trades, err := s.trades.ListTrades(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*TradeView, 0, len(trades))
	for _, trade := range trades {
		view, err := s.recalculate(ctx, trade)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Summary aggregates metrics across the whole journal.
func (s *JournalService) Summary(ctx context.Context) (*analytics.Summary, error) {
	views, err := s.ListTrades(ctx, ports.TradeFilter{})
	if err != nil {
		return nil, err
	}
	trades := make([]*domain.Trade, len(views))
	for i, v := range views {
		trades[i] = v.Trade
	}
	return analytics.Summarize(trades), nil
}

// SetMarket records manually supplied market data, for journals without a provider.
// The entry snapshot is not touched.
func (s *JournalService) SetMarket(ctx context.Context, tradeID string, market domain.CurrentMarket) (*TradeView, error) {
	for _, f := range []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"price", market.Price},
		{"volatility", market.Volatility},
		{"short moving average", market.MAShort},
		{"long moving average", market.MALong},
	} {
		if f.value.Valid && !f.value.Decimal.IsPositive() {
			return nil, fmt.Errorf("%s %s must be positive: %w", f.name, f.value.Decimal, ports.ErrInvalidRequest)
		}
	}

	unlock := s.locks.Lock(tradeID)
	defer unlock()

	trade, err := s.loadTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if market.UpdatedAt.IsZero() {
		market.UpdatedAt = s.clock()
	}
	trade.RefreshMarket(market)

	view, err := s.recalculateAndSave(ctx, trade)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Market data set manually", map[string]interface{}{
		"tradeID": tradeID, "price": nullString(market.Price),
	})
	return view, nil
}

// loadTrade fetches a trade and maps a missing one to ErrNotFound.
func (s *JournalService) loadTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	trade, err := s.trades.FindTrade(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade %s: %w", tradeID, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("trade %s: %w", tradeID, ports.ErrNotFound)
	}
	return trade, nil
}

// recalculate rebuilds the derived fields of a stored trade without writing anything.
func (s *JournalService) recalculate(ctx context.Context, trade *domain.Trade) (*TradeView, error) {
	txns, err := s.txns.ListTransactions(ctx, trade.TradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", trade.TradeID, err)
	}
	res, err := s.engine.Recalculate(trade, txns, s.clock())
	if err != nil {
		return nil, err
	}
	return &TradeView{Trade: trade, Transactions: txns, Issues: res.Issues}, nil
}

// recalculateAndSave recalculates a trade against its stored ledger and persists it.
// Callers hold the trade's lock.
func (s *JournalService) recalculateAndSave(ctx context.Context, trade *domain.Trade) (*TradeView, error) {
	view, err := s.recalculate(ctx, trade)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, trade); err != nil {
		return nil, err
	}
	s.logIssues(ctx, trade.TradeID, view.Issues)
	return view, nil
}

// commit recalculates each trade against its new ledger, then stores the exit writes and the
// trades in one repository call. Callers hold the trades' locks. Views follow the order of trades.
func (s *JournalService) commit(ctx context.Context, change ports.LedgerChange, ledgers map[string][]*domain.Transaction, trades ...*domain.Trade) ([]*TradeView, error) {
	now := s.clock()
	views := make([]*TradeView, 0, len(trades))
	for _, trade := range trades {
		ledger := ledgers[trade.TradeID]
		sortLedger(ledger)
		res, err := s.engine.Recalculate(trade, ledger, now)
		if err != nil {
			return nil, err
		}
		trade.UpdatedAt = now
		views = append(views, &TradeView{Trade: trade, Transactions: ledger, Issues: res.Issues})
	}

	change.Trades = trades
	if err := s.txns.ApplyLedgerChange(ctx, change); err != nil {
		return nil, err
	}
	for _, view := range views {
		s.logger.Debug(ctx, "Trade recalculated", map[string]interface{}{
			"tradeID":   view.Trade.TradeID,
			"status":    string(view.Trade.Derived.Status),
			"remaining": view.Trade.Derived.RemainingShares,
			"totalPnL":  nullString(view.Trade.Derived.TotalPnL),
		})
		s.logIssues(ctx, view.Trade.TradeID, view.Issues)
	}
	return views, nil
}

func (s *JournalService) save(ctx context.Context, trade *domain.Trade) error {
	trade.UpdatedAt = s.clock()
	if err := s.trades.UpdateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to save trade", map[string]interface{}{"tradeID": trade.TradeID})
		return err
	}
	s.logger.Debug(ctx, "Trade recalculated", map[string]interface{}{
		"tradeID":   trade.TradeID,
		"status":    string(trade.Derived.Status),
		"remaining": trade.Derived.RemainingShares,
		"totalPnL":  nullString(trade.Derived.TotalPnL),
	})
	return nil
}

func (s *JournalService) logIssues(ctx context.Context, tradeID string, issues []calc.Issue) {
	for _, is := range issues {
		s.logger.Warn(ctx, "Calculation issue", map[string]interface{}{
			"tradeID": tradeID,
			"code":    string(is.Code),
			"fields":  strings.Join(is.Fields, ","),
		})
	}
}

func unknown() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return "n/a"
	}
	return v.Decimal.String()
}
