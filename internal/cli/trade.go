package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

func newTradeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Create, edit and inspect trades",
	}
	cmd.AddCommand(
		newTradeAddCmd(opts),
		newTradeEditCmd(opts),
		newTradeShowCmd(opts),
		newTradeListCmd(opts),
		newTradeDeleteCmd(opts),
		newTradePriceCmd(opts),
	)
	return cmd
}

func newTradeAddCmd(opts *rootOptions) *cobra.Command {
	var (
		symbol, price, date    string
		floor, stop, portfolio string
		qty                    int64
	)

	cmd := &cobra.Command{
		Use:   "add <trade-id>",
		Short: "Open a new trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryPrice, err := parseDecimal("price", price)
			if err != nil {
				return err
			}
			entryDate, err := parseDate("date", date)
			if err != nil {
				return err
			}
			terms := domain.Terms{
				TradeID:    args[0],
				Symbol:     symbol,
				EntryPrice: entryPrice,
				Quantity:   qty,
				EntryDate:  entryDate,
			}
			if terms.FloorPrice, err = parseNullDecimal("floor", floor); err != nil {
				return err
			}
			if terms.StopOverride, err = parseNullDecimal("stop", stop); err != nil {
				return err
			}
			if terms.PortfolioSize, err = parseNullDecimal("portfolio", portfolio); err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.CreateTrade(cmd.Context(), terms)
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}

	f := cmd.Flags()
	f.StringVar(&symbol, "symbol", "", "instrument symbol")
	f.StringVar(&price, "price", "", "entry price per share")
	f.Int64Var(&qty, "qty", 0, "shares bought")
	f.StringVar(&date, "date", "", "entry date (YYYY-MM-DD)")
	f.StringVar(&floor, "floor", "", "entry-day low used as Stop3")
	f.StringVar(&stop, "stop", "", "manual Stop3 override")
	f.StringVar(&portfolio, "portfolio", "", "portfolio size at entry")
	for _, name := range []string{"symbol", "price", "qty", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTradeEditCmd(opts *rootOptions) *cobra.Command {
	var floor, stop, portfolio string

	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Change the floor, stop override or portfolio size of a trade",
		Long: `Change the editable inputs of a trade and recalculate it.
Pass an empty value (e.g. --stop "") to clear a field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit domain.TermsEdit
			for _, f := range []struct {
				name  string
				value string
				dst   **decimal.NullDecimal
			}{
				{"floor", floor, &edit.FloorPrice},
				{"stop", stop, &edit.StopOverride},
				{"portfolio", portfolio, &edit.PortfolioSize},
			} {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				v, err := parseNullDecimal(f.name, f.value)
				if err != nil {
					return err
				}
				*f.dst = &v
			}
			if edit.FloorPrice == nil && edit.StopOverride == nil && edit.PortfolioSize == nil {
				return fmt.Errorf("nothing to edit: set --floor, --stop or --portfolio: %w", ports.ErrInvalidRequest)
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.UpdateTrade(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}

	f := cmd.Flags()
	f.StringVar(&floor, "floor", "", "entry-day low used as Stop3")
	f.StringVar(&stop, "stop", "", "manual Stop3 override")
	f.StringVar(&portfolio, "portfolio", "", "portfolio size at entry")
	return cmd
}

func newTradeShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade with its ledger and derived fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.GetTrade(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}
}

func newTradeListCmd(opts *rootOptions) *cobra.Command {
	var status, symbol string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest entry first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(status, symbol)
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			views, err := s.svc.ListTrades(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderTrades(s.out, s.format, views)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only trades in this status: open, partial or closed")
	cmd.Flags().StringVar(&symbol, "symbol", "", "only trades in this symbol")
	return cmd
}

func newTradeDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade-id>",
		Short: "Delete a trade and all of its exits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.svc.DeleteTrade(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Deleted trade %s\n", args[0])
			return nil
		},
	}
}

func newTradePriceCmd(opts *rootOptions) *cobra.Command {
	var price, atr, maShort, maLong string

	cmd := &cobra.Command{
		Use:   "price <trade-id>",
		Short: "Set current market data by hand",
		Long: `Record the current price and indicators of a trade without a market data provider.
Values left out become unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				market domain.CurrentMarket
				err    error
			)
			if market.Price, err = parseNullDecimal("price", price); err != nil {
				return err
			}
			if market.Volatility, err = parseNullDecimal("atr", atr); err != nil {
				return err
			}
			if market.MAShort, err = parseNullDecimal("sma10", maShort); err != nil {
				return err
			}
			if market.MALong, err = parseNullDecimal("sma50", maLong); err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.SetMarket(cmd.Context(), args[0], market)
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}

	f := cmd.Flags()
	f.StringVar(&price, "price", "", "current price")
	f.StringVar(&atr, "atr", "", "current ATR")
	f.StringVar(&maShort, "sma10", "", "current short moving average")
	f.StringVar(&maLong, "sma50", "", "current long moving average")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("--%s: invalid number %q: %w", name, value, ports.ErrInvalidRequest)
	}
	return d, nil
}

// parseNullDecimal maps an empty value to unknown.
func parseNullDecimal(name, value string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseDecimal(name, value)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q: %w", name, value, ports.ErrInvalidRequest)
	}
	return t, nil
}

func parseFilter(status, symbol string) (ports.TradeFilter, error) {
	filter := ports.TradeFilter{Symbol: symbol}
	if status != "" {
		st, err := domain.ParseTradeStatus(status)
		if err != nil {
			return filter, fmt.Errorf("--status: %w", err)
		}
		filter.Status = st
	}
	return filter, nil
}
