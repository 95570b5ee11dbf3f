package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"waveRider/internal/analytics"
	"waveRider/internal/ports"
	"waveRider/internal/risk"
)

type planDoc struct {
	Shares       int64    `json:"shares" yaml:"shares"`
	CappedBy     string   `json:"capped_by" yaml:"capped_by"`
	PositionCost string   `json:"position_cost" yaml:"position_cost"`
	PositionPct  string   `json:"position_pct" yaml:"position_pct"`
	DollarRisk   string   `json:"dollar_risk" yaml:"dollar_risk"`
	RiskPct      string   `json:"risk_pct" yaml:"risk_pct"`
	Stop3        *string  `json:"stop3" yaml:"stop3"`
	Stop2        *string  `json:"stop2" yaml:"stop2"`
	Stop1        *string  `json:"stop1" yaml:"stop1"`
	TP1          *string  `json:"tp1" yaml:"tp1"`
	TP2          *string  `json:"tp2" yaml:"tp2"`
	TP3          *string  `json:"tp3" yaml:"tp3"`
	Warnings     []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var price, floor, stop, portfolio, riskPct string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Size a prospective entry from its stop ladder",
		Long: `Work out how many shares to buy so that hitting Stop3 loses RISK_PER_TRADE_PCT of the
portfolio, capped at MAX_POSITION_PCT, and warn when the new position would break the
open-trade or invested limits given what the journal already holds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseDecimal("price", price)
			if err != nil {
				return err
			}
			in := risk.PlanInput{EntryPrice: entry}
			if in.Floor, err = parseNullDecimal("floor", floor); err != nil {
				return err
			}
			if in.StopOverride, err = parseNullDecimal("stop", stop); err != nil {
				return err
			}
			size, err := parseNullDecimal("portfolio", portfolio)
			if err != nil {
				return err
			}
			pct, err := parseNullDecimal("risk-pct", riskPct)
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if !size.Valid {
				size = s.cfg.DefaultPortfolioSize
			}
			if !size.Valid {
				return fmt.Errorf("--portfolio is required when DEFAULT_PORTFOLIO_SIZE is unset: %w", ports.ErrInvalidRequest)
			}
			in.PortfolioSize = size.Decimal

			rc := risk.Config{
				RiskPerTradePct: s.cfg.RiskPerTradePct,
				MaxPositionPct:  s.cfg.MaxPositionPct,
				MaxOpenTrades:   s.cfg.MaxOpenTrades,
				MaxInvestedPct:  s.cfg.MaxInvestedPct,
			}
			if pct.Valid {
				rc.RiskPerTradePct = pct.Decimal
			}
			manager, err := risk.NewManager(rc)
			if err != nil {
				return err
			}
			plan, err := manager.Plan(in)
			if err != nil {
				return err
			}

			summary, err := s.svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return renderPlan(s.out, s.format, plan, exposureWarnings(manager, summary, plan.PositionPct))
		},
	}

	f := cmd.Flags()
	f.StringVar(&price, "price", "", "planned entry price")
	f.StringVar(&floor, "floor", "", "entry-day low used as Stop3")
	f.StringVar(&stop, "stop", "", "manual Stop3")
	f.StringVar(&portfolio, "portfolio", "", "portfolio size (default DEFAULT_PORTFOLIO_SIZE)")
	f.StringVar(&riskPct, "risk-pct", "", "portfolio % to risk (default RISK_PER_TRADE_PCT)")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func exposureWarnings(m *risk.Manager, summary *analytics.Summary, positionPct decimal.Decimal) []string {
	err := m.CheckExposure(summary.OpenTrades+summary.PartialTrades, summary.PctPortfolioInvested, positionPct)
	if err == nil {
		return nil
	}
	var warnings []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			warnings = append(warnings, e.Error())
		}
		return warnings
	}
	if errors.Is(err, risk.ErrLimitExceeded) {
		warnings = append(warnings, err.Error())
	}
	return warnings
}

func renderPlan(w io.Writer, format string, p *risk.Plan, warnings []string) error {
	doc := planDoc{
		Shares:       p.Shares,
		CappedBy:     p.CappedBy,
		PositionCost: p.PositionCost.StringFixed(2),
		PositionPct:  p.PositionPct.String(),
		DollarRisk:   p.DollarRisk.StringFixed(2),
		RiskPct:      p.RiskPct.String(),
		Stop3:        opt(p.Stops.Stop3),
		Stop2:        opt(p.Stops.Stop2),
		Stop1:        opt(p.Stops.Stop1),
		TP1:          opt(p.Stops.TP1),
		TP2:          opt(p.Stops.TP2),
		TP3:          opt(p.Stops.TP3),
		Warnings:     warnings,
	}
	if done, err := encode(w, format, doc); done {
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Shares:\t%d (limited by %s)\n", doc.Shares, doc.CappedBy)
	fmt.Fprintf(tw, "Cost:\t%s (%s%% of portfolio)\n", doc.PositionCost, doc.PositionPct)
	fmt.Fprintf(tw, "Risk to Stop3:\t%s (%s%% of portfolio)\n", doc.DollarRisk, doc.RiskPct)
	fmt.Fprintf(tw, "Stops 3 / 2 / 1:\t%s / %s / %s\n", cell(p.Stops.Stop3), cell(p.Stops.Stop2), cell(p.Stops.Stop1))
	fmt.Fprintf(tw, "TP 1 / 2 / 3:\t%s / %s / %s\n", cell(p.Stops.TP1), cell(p.Stops.TP2), cell(p.Stops.TP3))
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
