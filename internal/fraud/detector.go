// Package fraud classifies transactions with deterministic rules plus
// a per-counterparty statistical anomaly score.
package fraud

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"FinSentinel/internal/history"
	"FinSentinel/internal/model"
)

// Policy holds the configured rule thresholds.
type Policy struct {
	LargeAmountThreshold float64
	// Odd hours span [OddHourStart, OddHourEnd] inclusive and may wrap
	// midnight (e.g. 22..5).
	OddHourStart    int
	OddHourEnd      int
	ZScoreThreshold float64
	// MinHistory is the floor of past transactions a counterparty needs
	// before the statistical layer runs.
	MinHistory int
}

// Detector evaluates transactions. Evaluate always produces a verdict;
// missing data degrades to a reason code, never to an error.
type Detector struct {
	store  *history.Store
	policy Policy
	log    zerolog.Logger
}

// NewDetector creates a detector over the counterparty history store.
func NewDetector(store *history.Store, policy Policy, log zerolog.Logger) *Detector {
	return &Detector{
		store:  store,
		policy: policy,
		log:    log.With().Str("component", "fraud").Logger(),
	}
}

func (p Policy) oddHour(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	if p.OddHourStart <= p.OddHourEnd {
		return hour >= p.OddHourStart && hour <= p.OddHourEnd
	}
	return hour >= p.OddHourStart || hour <= p.OddHourEnd
}

// Evaluate runs the rule layer and, when enough history exists, the
// statistical layer. The transaction amount is appended to the
// counterparty's history afterwards regardless of the verdict, so
// legitimate transactions still inform future baselines. Re-evaluating
// an identical transaction mutates history again; callers needing
// idempotence must dedupe before calling.
func (d *Detector) Evaluate(tx model.Transaction) model.FraudVerdict {
	verdict := model.FraudVerdict{}
	amount := tx.Amount.InexactFloat64()
	counterparty := strings.TrimSpace(tx.Counterparty)

	if amount >= d.policy.LargeAmountThreshold {
		verdict.Reasons = append(verdict.Reasons, model.ReasonLargeAmount)
	}
	if d.policy.oddHour(tx.HourOfDay) {
		verdict.Reasons = append(verdict.Reasons, model.ReasonOddHour)
	}

	past, err := d.store.Amounts(counterparty)
	if err != nil {
		// A broken store must not break the verdict; fall through with
		// an empty history.
		d.log.Warn().Str("counterparty", counterparty).Err(err).Msg("history read failed")
		past = nil
	}
	if len(past) == 0 {
		verdict.Reasons = append(verdict.Reasons, model.ReasonUnknownCounterparty)
	}

	if len(past) >= d.policy.MinHistory {
		score := anomalyScore(amount, past)
		verdict.AnomalyScore = &score
		if math.Abs(score) > d.policy.ZScoreThreshold {
			verdict.Reasons = append(verdict.Reasons, model.ReasonStatisticalAnomaly)
		}
	} else {
		verdict.Reasons = append(verdict.Reasons, model.ReasonInsufficientHistory)
	}

	for _, r := range verdict.Reasons {
		if r != model.ReasonInsufficientHistory {
			verdict.Flagged = true
			break
		}
	}

	if err := d.store.Append(counterparty, tx.Amount); err != nil {
		d.log.Warn().Str("counterparty", counterparty).Err(err).Msg("history append failed")
	}

	if verdict.Flagged {
		d.log.Info().
			Str("counterparty", counterparty).
			Int("hour", tx.HourOfDay).
			Interface("reasons", verdict.Reasons).
			Msg("transaction flagged")
	}
	return verdict
}

// anomalyScore is the z-score of amount against the counterparty's own
// history. A zero-variance history makes any differing amount maximally
// anomalous rather than dividing by zero.
func anomalyScore(amount float64, past []decimal.Decimal) float64 {
	hist := make([]float64, len(past))
	for i, a := range past {
		hist[i] = a.InexactFloat64()
	}
	mean, stdev := stat.PopMeanStdDev(hist, nil)
	if stdev == 0 {
		if amount == mean {
			return 0
		}
		return math.Inf(1)
	}
	return (amount - mean) / stdev
}

// Erase removes all history for a counterparty (privacy delete). A
// subsequent evaluation treats it as first-time.
func (d *Detector) Erase(counterparty string) error {
	return d.store.Erase(strings.TrimSpace(counterparty))
}
