package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTradingDays(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		asOf     string
		expected int
	}{
		{"same day", "2024-01-15", "2024-01-15", 0},
		{"monday to friday", "2024-01-15", "2024-01-19", 4},
		{"monday to next monday", "2024-01-15", "2024-01-22", 5},
		{"friday over weekend", "2024-01-19", "2024-01-22", 1},
		{"weekend entry", "2024-01-20", "2024-01-22", 0},
		{"saturday to sunday", "2024-01-20", "2024-01-21", 0},
		{"as-of before entry", "2024-01-22", "2024-01-15", 0},
		{"whole year", "2024-01-01", "2024-12-31", 261},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TradingDays(day(tt.entry), day(tt.asOf)))
		})
	}
}

func TestTradingDays_IgnoresTimeOfDay(t *testing.T) {
	entry := time.Date(2024, 1, 15, 21, 30, 0, 0, time.UTC)
	asOf := time.Date(2024, 1, 16, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, 1, TradingDays(entry, asOf))
}
