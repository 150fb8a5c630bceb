package model

// CashSymbol denotes the cash sleeve of a portfolio. Cash contributes
// zero return and zero volatility but counts toward concentration.
const CashSymbol = "CASH"

// Holding is one position in a portfolio. RawWeight may be on any
// positive scale (percent, dollars, fractions); the analytics engine
// normalizes the vector before use.
type Holding struct {
	Symbol    string  `json:"symbol"`
	RawWeight float64 `json:"raw_weight"`
}

// IsCash reports whether the holding is the cash sleeve.
func (h Holding) IsCash() bool {
	return h.Symbol == "" || h.Symbol == CashSymbol
}

// ReturnSeries is a time-ordered (oldest first) sequence of simple
// period returns for one symbol over a fixed lookback window.
type ReturnSeries struct {
	Symbol  string
	Returns []float64
	Basis   PriceBasis
}

// RiskTolerance is the configured risk appetite tier.
type RiskTolerance string

const (
	ToleranceConservative RiskTolerance = "conservative"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceAggressive   RiskTolerance = "aggressive"
)

// PortfolioMetrics is the risk/return summary for a weighted basket.
// ExpectedReturn, Volatility and VaR95 are annualized fractions.
type PortfolioMetrics struct {
	ExpectedReturn float64 `json:"expected_return"`
	// Volatility is derived from the combined weighted return series
	// unless VolatilityApprox is set, in which case it is the weighted
	// average of the individual volatilities.
	Volatility       float64 `json:"volatility"`
	VolatilityApprox bool    `json:"volatility_approx,omitempty"`
	// Sharpe is nil when volatility is zero (e.g. 100% cash).
	Sharpe *float64 `json:"sharpe"`
	HHI    float64  `json:"hhi"`
	// VaR95 is the historical-simulation 5% value at risk, reported as
	// a non-positive number.
	VaR95   float64 `json:"var_95"`
	RiskFit string  `json:"risk_fit"`
}
