package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"waveRider/internal/domain"
)

func newTxnCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"exit"},
		Short:   "Record and manage exits",
	}
	cmd.AddCommand(
		newTxnAddCmd(opts),
		newTxnEditCmd(opts),
		newTxnDeleteCmd(opts),
		newTxnImportCmd(opts),
		newTxnExportCmd(opts),
	)
	return cmd
}

// txnFlags are the exit fields shared by add and edit.
type txnFlags struct {
	date, reason, price, fee, note string
	qty                            int64
}

func (f *txnFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.date, "date", "", "exit date (YYYY-MM-DD)")
	fs.StringVar(&f.reason, "reason", "", "exit reason: Stop1, Stop2, Stop3, TP1, TP2, TP3, Manual or Other")
	fs.Int64Var(&f.qty, "qty", 0, "shares exited")
	fs.StringVar(&f.price, "price", "", "exit price per share")
	fs.StringVar(&f.fee, "fee", "", "fee charged for the exit")
	fs.StringVar(&f.note, "note", "", "free text")
}

// apply copies the flags that were set onto txn.
func (f *txnFlags) apply(cmd *cobra.Command, txn *domain.Transaction) error {
	changed := cmd.Flags().Changed
	if changed("date") {
		d, err := parseDate("date", f.date)
		if err != nil {
			return err
		}
		txn.ExitDate = d
	}
	if changed("reason") {
		r, err := domain.ParseExitReason(f.reason)
		if err != nil {
			return fmt.Errorf("--reason: %w", err)
		}
		txn.Reason = r
	}
	if changed("qty") {
		txn.Quantity = f.qty
	}
	if changed("price") {
		p, err := parseDecimal("price", f.price)
		if err != nil {
			return err
		}
		txn.Price = p
	}
	if changed("fee") {
		fee, err := parseNullDecimal("fee", f.fee)
		if err != nil {
			return err
		}
		txn.Fee = fee.Decimal
	}
	if changed("note") {
		txn.Note = f.note
	}
	return nil
}

func newTxnAddCmd(opts *rootOptions) *cobra.Command {
	flags := &txnFlags{}

	cmd := &cobra.Command{
		Use:   "add <trade-id>",
		Short: "Record an exit against a trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txn := &domain.Transaction{TradeID: args[0]}
			if err := flags.apply(cmd, txn); err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.AddTransaction(cmd.Context(), txn)
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}

	flags.register(cmd)
	for _, name := range []string{"date", "reason", "qty", "price"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTxnEditCmd(opts *rootOptions) *cobra.Command {
	flags := &txnFlags{}

	cmd := &cobra.Command{
		Use:   "edit <txn-id>",
		Short: "Change an exit; fields left out keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			txn, err := s.svc.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, txn); err != nil {
				return err
			}
			view, err := s.svc.UpdateTransaction(cmd.Context(), txn)
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}

	flags.register(cmd)
	return cmd
}

func newTxnDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <txn-id>",
		Short: "Delete an exit and recalculate its trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			view, err := s.svc.DeleteTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderTrade(s.out, s.format, view)
		},
	}
}

func newTxnImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import exits from CSV; any bad row rejects the whole file",
		Long: `Import exits from a CSV file with the header
  exit_date,trade_id,action,ticker,shares,price,fees,notes
ticker, fees and notes may be empty. Every row is checked before anything is written.
Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.svc.ImportTransactions(cmd.Context(), in)
			if err != nil {
				return err
			}
			if s.format != outputTable {
				return renderTrades(s.out, s.format, res.Trades)
			}
			fmt.Fprintf(s.out, "Imported %d exit(s) across %d trade(s)\n\n", res.Created, len(res.Trades))
			return renderTrades(s.out, s.format, res.Trades)
		},
	}
}

func newTxnExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <trade-id>",
		Short: "Write a trade's exits as CSV in the import layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			w, done, err := outputFile(cmd, out)
			if err != nil {
				return err
			}
			if err := s.svc.ExportTransactions(cmd.Context(), args[0], w); err != nil {
				done()
				return err
			}
			return done()
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}
