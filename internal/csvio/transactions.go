// Package csvio reads and writes the journal's CSV formats: bulk exit imports, the trade
// export and raw kline dumps.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"waveRider/internal/domain"
	"waveRider/internal/ports"
)

// TransactionHeader is the column layout of a bulk transaction import.
var TransactionHeader = []string{"exit_date", "trade_id", "action", "ticker", "shares", "price", "fees", "notes"}

var requiredTransactionColumns = []string{"exit_date", "trade_id", "action", "shares", "price"}

// TransactionRow is one parsed import row.
type TransactionRow struct {
	Line        int    // 1-based line number in the file, header included
	Ticker      string // Optional; checked against the trade's symbol when present
	Transaction *domain.Transaction
}

// RowError reports a problem with a single import row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadTransactions parses a transaction import. Every row is checked before returning;
// all row problems are reported together and no rows are returned if any row is bad.
func ReadTransactions(r io.Reader) ([]TransactionRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: %w", ports.ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w: %w", ports.ErrInvalidRequest, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	var missing []string
	for _, name := range requiredTransactionColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns %s: %w", strings.Join(missing, ", "), ports.ErrInvalidRequest)
	}

	var (
		rows []TransactionRow
		errs []error
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("read transactions: %w", err)
			}
			errs = append(errs, &RowError{Line: parseErr.StartLine, Err: fmt.Errorf("%w: %w", ports.ErrInvalidRequest, parseErr.Err)})
			continue
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row, err := parseTransaction(record, cols)
		if err != nil {
			errs = append(errs, &RowError{Line: line, Err: err})
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no transactions in file: %w", ports.ErrInvalidRequest)
	}
	return rows, nil
}

func parseTransaction(record []string, cols map[string]int) (TransactionRow, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tradeID := field("trade_id")
	if tradeID == "" {
		return TransactionRow{}, invalid("trade_id is required")
	}
	exitDate, err := time.Parse(time.DateOnly, field("exit_date"))
	if err != nil {
		return TransactionRow{}, invalid("exit_date %q is not YYYY-MM-DD", field("exit_date"))
	}
	reason, err := domain.ParseExitReason(field("action"))
	if err != nil {
		return TransactionRow{}, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}
	shares, err := strconv.ParseInt(field("shares"), 10, 64)
	if err != nil {
		return TransactionRow{}, invalid("shares %q is not a whole number", field("shares"))
	}
	price, err := decimal.NewFromString(field("price"))
	if err != nil {
		return TransactionRow{}, invalid("price %q is not a number", field("price"))
	}
	fee := decimal.Zero
	if s := field("fees"); s != "" {
		if fee, err = decimal.NewFromString(s); err != nil {
			return TransactionRow{}, invalid("fees %q is not a number", s)
		}
	}

	return TransactionRow{
		Ticker: strings.ToUpper(field("ticker")),
		Transaction: &domain.Transaction{
			TradeID:  tradeID,
			ExitDate: exitDate,
			Reason:   reason,
			Quantity: shares,
			Price:    price,
			Fee:      fee,
			Note:     field("notes"),
		},
	}, nil
}

// WriteTransactions writes a ledger in the import layout, so an export can be re-imported.
func WriteTransactions(w io.Writer, symbol string, txns []*domain.Transaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TransactionHeader); err != nil {
		return err
	}
	for _, t := range txns {
		if err := writer.Write([]string{
			t.ExitDate.Format(time.DateOnly),
			t.TradeID,
			string(t.Reason),
			symbol,
			strconv.FormatInt(t.Quantity, 10),
			t.Price.String(),
			t.Fee.StringFixed(2),
			t.Note,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ports.ErrInvalidRequest)
}
