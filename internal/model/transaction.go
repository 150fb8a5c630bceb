package model

import "github.com/shopspring/decimal"

// Transaction is the ephemeral input to a fraud evaluation. It is not
// persisted as such; only the amount enters the counterparty history.
type Transaction struct {
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	HourOfDay    int             `json:"hour_of_day"`
	Type         string          `json:"type"`
}

// Reason is a fraud verdict reason code.
type Reason string

const (
	ReasonLargeAmount         Reason = "LARGE_AMOUNT"
	ReasonOddHour             Reason = "ODD_HOUR"
	ReasonUnknownCounterparty Reason = "UNKNOWN_COUNTERPARTY"
	ReasonStatisticalAnomaly  Reason = "STATISTICAL_ANOMALY"
	// ReasonInsufficientHistory documents that the statistical layer was
	// skipped for lack of history. Informational: it never sets Flagged
	// on its own.
	ReasonInsufficientHistory Reason = "INSUFFICIENT_HISTORY"
)

// FraudVerdict is the always-produced outcome of a fraud evaluation.
type FraudVerdict struct {
	Flagged bool     `json:"flagged"`
	Reasons []Reason `json:"reasons"`
	// AnomalyScore is the counterparty z-score when the statistical
	// layer ran, nil otherwise. +Inf encodes the maximal anomaly on a
	// zero-variance history.
	AnomalyScore *float64 `json:"anomaly_score"`
}

// HasReason reports whether the verdict carries the given reason code.
func (v FraudVerdict) HasReason(r Reason) bool {
	for _, got := range v.Reasons {
		if got == r {
			return true
		}
	}
	return false
}
