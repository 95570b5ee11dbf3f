package cli

import (
	"github.com/spf13/cobra"

	"waveRider/internal/app"
)

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [trade-id]",
		Short: "Re-fetch current price and indicators",
		Long: `Re-fetch the current price, ATR and moving averages and recalculate.
With no argument every open or partially exited trade is refreshed.
Entry-date values are never re-fetched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if len(args) == 1 {
				view, err := s.svc.RefreshTrade(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderRefresh(s.out, s.format, []app.RefreshResult{{TradeID: args[0], View: view}})
			}

			results, err := s.svc.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			return renderRefresh(s.out, s.format, results)
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show journal-wide performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			summary, err := s.svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return renderSummary(s.out, s.format, summary)
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out, status, symbol string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every trade and its derived fields as CSV",
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

			w, done, err := outputFile(cmd, out)
			if err != nil {
				return err
			}
			if err := s.svc.ExportTrades(cmd.Context(), filter, w); err != nil {
				done()
				return err
			}
			return done()
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "output file (default stdout)")
	f.StringVar(&status, "status", "", "only trades in this status: open, partial or closed")
	f.StringVar(&symbol, "symbol", "", "only trades in this symbol")
	return cmd
}
