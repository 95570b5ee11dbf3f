// Package cli is the waverider command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"waveRider/config"
	"waveRider/internal/adapters/binanceclient"
	"waveRider/internal/adapters/logger"
	"waveRider/internal/adapters/sqlite"
	"waveRider/internal/adapters/yahoo"
	"waveRider/internal/app"
	"waveRider/internal/calc"
	"waveRider/internal/idgen"
	"waveRider/internal/marketdata"
	"waveRider/internal/ports"
	"waveRider/internal/validation"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	envFile  string
	dbPath   string
	provider string
	output   string
}

// Execute runs the root command against the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "waverider",
		Short: "Trade journal with ATR-anchored 3-stop risk management",
		Long: `waverider keeps a journal of stock trades and derives their risk ladder.

For each trade it computes:
  - Stop3 from the entry-day low (or a manual override), then Stop2, Stop1 and TP1..TP3
  - realized and unrealized PnL from the exit ledger
  - position size as a share of the portfolio
  - risk in ATR units and the entry/current distance from the 50-day SMA
  - the R-multiple and trading days open

Examples:
  waverider trade add AAPL-001 --symbol AAPL --price 185.50 --qty 100 --date 2024-01-15 --floor 182.10
  waverider txn add AAPL-001 --reason TP1 --qty 50 --price 191.00 --date 2024-01-22
  waverider refresh
  waverider trade list --status open -o json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (table, json, yaml)", opts.output)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "configuration file (default .env in the working directory)")
	flags.StringVar(&opts.dbPath, "db", "", "path to the SQLite journal (overrides DB_PATH)")
	flags.StringVar(&opts.provider, "provider", "", "market data provider: yahoo, binance or none (overrides MARKET_DATA_PROVIDER)")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "output format: table, json or yaml")

	cmd.AddCommand(
		newTradeCmd(opts),
		newTxnCmd(opts),
		newRefreshCmd(opts),
		newSummaryCmd(opts),
		newExportCmd(opts),
		newPlanCmd(opts),
	)
	return cmd
}

// session is one command's worth of wired dependencies.
type session struct {
	cfg    *config.Config
	svc    *app.JournalService
	out    io.Writer
	format string
	close  func()
}

// open loads configuration and wires the journal service.
func (o *rootOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfigFrom(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.provider != "" {
		cfg.MarketDataProvider = o.provider
	}

	log, err := logger.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
	if err != nil {
		return nil, err
	}

	source, err := NewMarketSource(cfg, log)
	if err != nil {
		repo.Close()
		return nil, err
	}
	market := marketdata.NewService(source, log, marketdata.Config{
		ATRPeriod:      cfg.ATRPeriod,
		ATRSmoothing:   cfg.ATRSmoothing,
		MAType:         cfg.MAType,
		SMAShortPeriod: cfg.SMAShortPeriod,
		SMALongPeriod:  cfg.SMALongPeriod,
		LookbackDays:   cfg.HistoryLookbackDays,
	})

	ids := idgen.New()
	svc, err := app.NewJournalService(app.Deps{
		Trades:       repo,
		Transactions: repo,
		Market:       market,
		Engine: calc.New(calc.Config{
			DefaultPortfolioSize: cfg.DefaultPortfolioSize,
			FloorBufferPct:       cfg.FloorBufferPct,
		}),
		Validator: validation.NewValidator(validation.Config{
			MaxTradeIDLength: cfg.MaxTradeIDLength,
			MaxSymbolLength:  cfg.MaxSymbolLength,
		}),
		Logger: log,
		NewID:  ids.NewID,
	}, app.Config{RefreshConcurrency: cfg.RefreshConcurrency})
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &session{
		cfg:    cfg,
		svc:    svc,
		out:    cmd.OutOrStdout(),
		format: o.output,
		close: func() {
			if err := repo.Close(); err != nil {
				log.Error(context.Background(), err, "Failed to close database")
			}
			if z, ok := log.(*logger.ZapLogger); ok {
				_ = z.Sync()
			}
		},
	}, nil
}

// NewMarketSource builds the configured provider. It returns nil for ProviderNone.
func NewMarketSource(cfg *config.Config, log ports.Logger) (ports.MarketDataSource, error) {
	switch cfg.MarketDataProvider {
	case config.ProviderYahoo:
		return yahoo.New(yahoo.Config{
			BaseURL: cfg.YahooBaseURL,
			Timeout: cfg.HTTPTimeout,
			Logger:  log,
		})
	case config.ProviderBinance:
		return binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     log,
		})
	case config.ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q: %w", cfg.MarketDataProvider, ports.ErrConfigurationError)
	}
}

// outputFile opens path for writing, or returns stdout when path is empty or "-".
func outputFile(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
