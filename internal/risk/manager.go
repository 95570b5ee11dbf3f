package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"waveRider/internal/calc"
	"waveRider/internal/ports"
)

// ErrLimitExceeded reports a new position that would break a portfolio limit.
var ErrLimitExceeded = errors.New("risk limit exceeded")

var hundred = decimal.NewFromInt(100)

// Config holds the sizing and exposure limits.
type Config struct {
	RiskPerTradePct decimal.Decimal // Portfolio % lost if Stop3 is hit on the full position
	MaxPositionPct  decimal.Decimal // Cap on entry value as a % of the portfolio; zero disables
	MaxOpenTrades   int             // Open and partial trades allowed at once; zero disables
	MaxInvestedPct  decimal.Decimal // Cap on current % of portfolio invested; zero disables
}

// DefaultConfig risks 1% per trade with a quarter of the portfolio in any one position.
func DefaultConfig() Config {
	return Config{
		RiskPerTradePct: decimal.NewFromInt(1),
		MaxPositionPct:  decimal.NewFromInt(25),
	}
}

// Manager sizes new positions against the stop ladder and checks portfolio limits.
type Manager struct {
	config Config
}

// NewManager creates a new risk manager instance.
func NewManager(config Config) (*Manager, error) {
	if !config.RiskPerTradePct.IsPositive() || config.RiskPerTradePct.GreaterThan(hundred) {
		return nil, fmt.Errorf("risk per trade %s%% must be in (0, 100]: %w", config.RiskPerTradePct, ports.ErrConfigurationError)
	}
	if config.MaxPositionPct.IsNegative() || config.MaxInvestedPct.IsNegative() || config.MaxOpenTrades < 0 {
		return nil, fmt.Errorf("risk limits must not be negative: %w", ports.ErrConfigurationError)
	}
	return &Manager{config: config}, nil
}

// PlanInput describes a prospective long entry.
type PlanInput struct {
	EntryPrice    decimal.Decimal
	Floor         decimal.NullDecimal // Entry-day low
	StopOverride  decimal.NullDecimal
	PortfolioSize decimal.Decimal
}

// Plan is a sized position with its stop ladder.
type Plan struct {
	Stops        calc.Stops
	Shares       int64
	CappedBy     string          // "risk" or "position"; which limit set Shares
	PositionCost decimal.Decimal // Shares × entry
	PositionPct  decimal.Decimal // Cost as a % of the portfolio
	DollarRisk   decimal.Decimal // Shares × R, lost if Stop3 is hit
	RiskPct      decimal.Decimal // Dollar risk as a % of the portfolio
}

// Plan sizes a position so that hitting Stop3 loses RiskPerTradePct of the portfolio,
// then caps it at MaxPositionPct.
func (m *Manager) Plan(in PlanInput) (*Plan, error) {
	if !in.EntryPrice.IsPositive() {
		return nil, fmt.Errorf("entry price %s must be positive: %w", in.EntryPrice, ports.ErrInvalidRequest)
	}
	if !in.PortfolioSize.IsPositive() {
		return nil, fmt.Errorf("portfolio size %s must be positive: %w", in.PortfolioSize, ports.ErrInvalidRequest)
	}

	stops := calc.StopsAndTargets(calc.StopsInput{
		EntryPrice: in.EntryPrice,
		Floor:      in.Floor,
		Override:   in.StopOverride,
	})
	if !stops.OneR.Valid {
		return nil, fmt.Errorf("no positive risk unit between entry %s and stop %s: %w",
			in.EntryPrice, stopString(stops.Stop3), ports.ErrInvalidRequest)
	}
	r := stops.OneR.Decimal

	budget := in.PortfolioSize.Mul(m.config.RiskPerTradePct).Div(hundred)
	shares := budget.Div(r).Floor().IntPart()
	plan := &Plan{Stops: stops, CappedBy: "risk"}

	if m.config.MaxPositionPct.IsPositive() {
		maxCost := in.PortfolioSize.Mul(m.config.MaxPositionPct).Div(hundred)
		if maxShares := maxCost.Div(in.EntryPrice).Floor().IntPart(); maxShares < shares {
			shares = maxShares
			plan.CappedBy = "position"
		}
	}
	if shares <= 0 {
		return nil, fmt.Errorf("portfolio %s cannot fund one share at %s within limits: %w",
			in.PortfolioSize, in.EntryPrice, ErrLimitExceeded)
	}

	qty := decimal.NewFromInt(shares)
	plan.Shares = shares
	plan.PositionCost = qty.Mul(in.EntryPrice).Round(2)
	plan.PositionPct = qty.Mul(in.EntryPrice).Div(in.PortfolioSize).Mul(hundred).Round(4)
	plan.DollarRisk = qty.Mul(r).Round(2)
	plan.RiskPct = qty.Mul(r).Div(in.PortfolioSize).Mul(hundred).Round(4)
	return plan, nil
}

// CheckExposure reports every limit a new position of positionPct would break, given the
// trades already open and the share of the portfolio they hold.
func (m *Manager) CheckExposure(openTrades int, investedPct decimal.NullDecimal, positionPct decimal.Decimal) error {
	var errs []error
	if m.config.MaxOpenTrades > 0 && openTrades+1 > m.config.MaxOpenTrades {
		errs = append(errs, fmt.Errorf("%d open trades would exceed the maximum of %d: %w",
			openTrades+1, m.config.MaxOpenTrades, ErrLimitExceeded))
	}
	if m.config.MaxInvestedPct.IsPositive() && investedPct.Valid {
		total := investedPct.Decimal.Add(positionPct)
		if total.GreaterThan(m.config.MaxInvestedPct) {
			errs = append(errs, fmt.Errorf("%s%% invested would exceed the maximum of %s%%: %w",
				total.Round(2), m.config.MaxInvestedPct, ErrLimitExceeded))
		}
	}
	return errors.Join(errs...)
}

func stopString(v decimal.NullDecimal) string {
	if !v.Valid {
		return "unknown"
	}
	return v.Decimal.String()
}
