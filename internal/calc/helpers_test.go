package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func assertDec(t *testing.T, want string, got decimal.NullDecimal, field string) {
	t.Helper()
	require.Truef(t, got.Valid, "%s: expected %s, got unknown", field, want)
	assert.Truef(t, dec(want).Equal(got.Decimal), "%s: expected %s, got %s", field, want, got.Decimal)
}

func assertUnknown(t *testing.T, got decimal.NullDecimal, field string) {
	t.Helper()
	assert.Falsef(t, got.Valid, "%s: expected unknown, got %s", field, got.Decimal)
}

func hasIssue(issues []Issue, code IssueCode) bool {
	for _, is := range issues {
		if is.Code == code {
			return true
		}
	}
	return false
}
