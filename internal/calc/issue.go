package calc

// IssueCode classifies a data-quality condition met while calculating.
type IssueCode string

const (
	// MissingDependency: a required input is unknown.
	IssueMissingFloor             IssueCode = "missing_floor"
	IssueMissingCurrentPrice      IssueCode = "missing_current_price"
	IssueMissingEntryVolatility   IssueCode = "missing_entry_volatility"
	IssueMissingEntryMA           IssueCode = "missing_entry_ma"
	IssueMissingCurrentVolatility IssueCode = "missing_current_volatility"
	IssueMissingCurrentMA         IssueCode = "missing_current_ma"
	IssueMissingPortfolioSize     IssueCode = "missing_portfolio_size"

	// DegenerateInput: inputs are present but the formula is meaningless.
	IssueNonPositiveRiskUnit   IssueCode = "non_positive_risk_unit"
	IssueNonPositiveVolatility IssueCode = "non_positive_volatility"
	IssueZeroDenominator       IssueCode = "zero_denominator"
)

// Issue records why one or more derived fields came out unknown.
// Issues are values; they never abort a calculation.
type Issue struct {
	Code   IssueCode
	Fields []string // Derived fields left unknown
}

func issue(code IssueCode, fields ...string) Issue {
	return Issue{Code: code, Fields: fields}
}
