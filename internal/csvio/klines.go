package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"waveRider/internal/domain"
)

// WriteKlines dumps candles as CSV, one row per kline.
func WriteKlines(w io.Writer, klines []*domain.Kline) error {
	writer := csv.NewWriter(w)

	// Write header
	if err := writer.Write([]string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}

	for _, k := range klines {
		if err := writer.Write([]string{
			k.OpenTime.UTC().Format(time.RFC3339),
			k.CloseTime.UTC().Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			strconv.FormatFloat(k.Open, 'f', -1, 64),
			strconv.FormatFloat(k.High, 'f', -1, 64),
			strconv.FormatFloat(k.Low, 'f', -1, 64),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
