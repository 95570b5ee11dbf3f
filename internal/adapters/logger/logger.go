package logger

import (
	"fmt"
	"strings"

	"waveRider/internal/ports"
)

// New returns a logger for the configured output format: "text" (default) or "json".
func New(format string, level LogLevel) (ports.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return NewStdLogger(level), nil
	case "json":
		return NewZapLogger(level)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
