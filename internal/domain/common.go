package domain

import (
	"fmt"
	"strings"
)

// TradeStatus represents the lifecycle state of a trade, derived from its exit ledger.
type TradeStatus string

const (
	StatusOpen    TradeStatus = "OPEN"
	StatusPartial TradeStatus = "PARTIAL"
	StatusClosed  TradeStatus = "CLOSED" // Terminal
)

// ParseTradeStatus converts a user supplied status filter into a TradeStatus.
func ParseTradeStatus(s string) (TradeStatus, error) {
	switch TradeStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusPartial:
		return StatusPartial, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", fmt.Errorf("unknown trade status %q", s)
	}
}

// ExitReason tags why shares were exited.
type ExitReason string

const (
	ExitStop1  ExitReason = "Stop1"
	ExitStop2  ExitReason = "Stop2"
	ExitStop3  ExitReason = "Stop3"
	ExitTP1    ExitReason = "TP1"
	ExitTP2    ExitReason = "TP2"
	ExitTP3    ExitReason = "TP3"
	ExitManual ExitReason = "Manual"
	ExitOther  ExitReason = "Other" // Catch-all
)

// ExitReasons lists every valid exit reason in display order.
var ExitReasons = []ExitReason{
	ExitStop1, ExitStop2, ExitStop3,
	ExitTP1, ExitTP2, ExitTP3,
	ExitManual, ExitOther,
}

// ParseExitReason matches s against the closed set of exit reasons, ignoring case.
func ParseExitReason(s string) (ExitReason, error) {
	s = strings.TrimSpace(s)
	for _, r := range ExitReasons {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("invalid exit reason %q", s)
}

// Valid reports whether r is a member of the exit reason enumeration.
func (r ExitReason) Valid() bool {
	for _, v := range ExitReasons {
		if v == r {
			return true
		}
	}
	return false
}
