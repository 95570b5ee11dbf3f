package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"waveRider/internal/ports"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func TestNewManager(t *testing.T) {
	if _, err := NewManager(DefaultConfig()); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	bad := DefaultConfig()
	bad.RiskPerTradePct = decimal.Zero
	if _, err := NewManager(bad); !errors.Is(err, ports.ErrConfigurationError) {
		t.Errorf("Expected configuration error for zero risk, got %v", err)
	}

	bad = DefaultConfig()
	bad.MaxOpenTrades = -1
	if _, err := NewManager(bad); !errors.Is(err, ports.ErrConfigurationError) {
		t.Errorf("Expected configuration error for negative limit, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	manager, err := NewManager(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		in         PlanInput
		wantShares int64
		wantCapped string
		wantRisk   string
		wantPosPct string
		wantStop2  string
		wantErr    error
	}{
		{
			name:       "sized by risk",
			in:         PlanInput{EntryPrice: d("100"), Floor: nd("95"), PortfolioSize: d("100000")},
			wantShares: 200,
			wantCapped: "risk",
			wantRisk:   "1000",
			wantPosPct: "20",
			wantStop2:  "96.6667",
		},
		{
			name:       "tight stop capped by position size",
			in:         PlanInput{EntryPrice: d("100"), Floor: nd("99"), PortfolioSize: d("100000")},
			wantShares: 250,
			wantCapped: "position",
			wantRisk:   "250",
			wantPosPct: "25",
			wantStop2:  "99.3333",
		},
		{
			name:       "override wins over floor",
			in:         PlanInput{EntryPrice: d("50"), Floor: nd("49"), StopOverride: nd("45"), PortfolioSize: d("10000")},
			wantShares: 20,
			wantCapped: "risk",
			wantRisk:   "100",
			wantPosPct: "10",
			wantStop2:  "46.6667",
		},
		{
			name:    "floor above entry",
			in:      PlanInput{EntryPrice: d("100"), Floor: nd("101"), PortfolioSize: d("100000")},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "no stop at all",
			in:      PlanInput{EntryPrice: d("100"), PortfolioSize: d("100000")},
			wantErr: ports.ErrInvalidRequest,
		},
		{
			name:    "portfolio too small",
			in:      PlanInput{EntryPrice: d("500"), Floor: nd("400"), PortfolioSize: d("100")},
			wantErr: ErrLimitExceeded,
		},
		{
			name:    "zero portfolio",
			in:      PlanInput{EntryPrice: d("100"), Floor: nd("95"), PortfolioSize: decimal.Zero},
			wantErr: ports.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := manager.Plan(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if plan.Shares != tt.wantShares {
				t.Errorf("Expected %d shares, got %d", tt.wantShares, plan.Shares)
			}
			if plan.CappedBy != tt.wantCapped {
				t.Errorf("Expected capped by %s, got %s", tt.wantCapped, plan.CappedBy)
			}
			if plan.DollarRisk.String() != tt.wantRisk {
				t.Errorf("Expected dollar risk %s, got %s", tt.wantRisk, plan.DollarRisk)
			}
			if plan.PositionPct.String() != tt.wantPosPct {
				t.Errorf("Expected position %s%%, got %s%%", tt.wantPosPct, plan.PositionPct)
			}
			if plan.Stops.Stop2.Decimal.String() != tt.wantStop2 {
				t.Errorf("Expected Stop2 %s, got %s", tt.wantStop2, plan.Stops.Stop2.Decimal)
			}
		})
	}
}

func TestCheckExposure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOpenTrades = 3
	cfg.MaxInvestedPct = d("80")
	manager, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := manager.CheckExposure(2, nd("50"), d("20")); err != nil {
		t.Errorf("Expected no error within limits, got %v", err)
	}
	if err := manager.CheckExposure(3, nd("50"), d("20")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Expected open trade limit error, got %v", err)
	}
	if err := manager.CheckExposure(1, nd("70"), d("20")); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Expected invested limit error, got %v", err)
	}
	if err := manager.CheckExposure(1, decimal.NullDecimal{}, d("90")); err != nil {
		t.Errorf("Expected unknown exposure to pass, got %v", err)
	}
}
