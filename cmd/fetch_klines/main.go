package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"waveRider/config"
	"waveRider/internal/adapters/logger"
	"waveRider/internal/cli"
	"waveRider/internal/csvio"
)

var (
	symbol  = flag.String("symbol", "", "instrument symbol (required)")
	days    = flag.Int("days", 120, "calendar days of history ending today")
	outDir  = flag.String("out", "data", "output directory")
	envFile = flag.String("env-file", "", "configuration file (default .env)")
)

// fetch_klines downloads daily candles from the configured provider into a CSV file,
// for checking indicator values by hand.
func main() {
	flag.Parse()
	if *symbol == "" || *days <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfigFrom(*envFile)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	// 3. Initialize Market Data Source
	source, err := cli.NewMarketSource(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize market data source")
		log.Fatalf("FATAL: Failed to initialize market data source: %v", err)
	}
	if source == nil {
		log.Fatalf("FATAL: MARKET_DATA_PROVIDER is %q; choose yahoo or binance", cfg.MarketDataProvider)
	}

	sym := strings.ToUpper(strings.TrimSpace(*symbol))
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)

	fmt.Printf("Fetching daily klines for %s from %s to %s via %s...\n",
		sym, start.Format(time.DateOnly), end.Format(time.DateOnly), source.Name())
	klines, err := source.DailyKlines(ctx, sym, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines", map[string]interface{}{"symbol": sym})
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"symbol": sym, "count": len(klines)})

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Error creating %s: %v", *outDir, err)
	}
	filename := filepath.Join(*outDir, fmt.Sprintf("%s_1d_%s_to_%s.csv", sym, start.Format("20060102"), end.Format("20060102")))
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Error creating %s: %v", filename, err)
	}
	if err := csvio.WriteKlines(f, klines); err != nil {
		f.Close()
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Error closing %s: %v", filename, err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}
