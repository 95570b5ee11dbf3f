package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"waveRider/internal/ports"
)

// dateLayout is how calendar dates (entry and exit dates) are stored.
const dateLayout = "2006-01-02"

// Repository implements the ports.TradeRepository and ports.TransactionRepository interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/waverider.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})

	// Foreign keys are off by default in SQLite; the ledger relies on them.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Debug(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		trade_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		entry_price TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		entry_date TEXT NOT NULL,
		floor_price TEXT NULL,
		stop_override TEXT NULL,
		portfolio_size TEXT NULL,
		-- Entry snapshot, written once on insert
		entry_volatility TEXT NULL,
		entry_ma_long TEXT NULL,
		entry_captured_at TIMESTAMP NULL,
		-- Current market data, rewritten on refresh
		current_price TEXT NULL,
		current_volatility TEXT NULL,
		current_ma_short TEXT NULL,
		current_ma_long TEXT NULL,
		market_updated_at TIMESTAMP NULL,
		status TEXT NOT NULL,
		remaining_shares INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		trade_id TEXT NOT NULL REFERENCES trades (trade_id) ON DELETE CASCADE,
		exit_date TEXT NOT NULL,
		reason TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price TEXT NOT NULL,
		fee TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_status_symbol ON trades (status, symbol);
	CREATE INDEX IF NOT EXISTS idx_transactions_trade_exit ON transactions (trade_id, exit_date, id);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrDBConnection, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	return nil
}

// mapConstraintError translates SQLite constraint violations into port errors.
func mapConstraintError(err error, fallback error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %w", ports.ErrDuplicateEntry, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ports.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", fallback, err)
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
