package service

import (
	"math"
	"strings"

	"github.com/bibbank/fraudscore/internal/domain/model"
)

// Indicator is one entry of the key-indicator catalog. Exactly one of rule
// and subScore is set; a sub-score indicator also emits a 0/1 companion flag
// under its own code.
type Indicator struct {
	rule     func(*Evaluator, EvaluationInput) bool
	subScore func(*Evaluator, EvaluationInput) float64
	Code     string
	Name     string
}

// Continuous reports whether the indicator carries a sub-score.
func (i Indicator) Continuous() bool {
	return i.subScore != nil
}

// SubScoreCode returns the vector key of the continuous sub-score.
func (i Indicator) SubScoreCode() string {
	return i.Code + model.SubScoreSuffix
}

// catalog lists every known indicator in evaluation order. Adding an
// indicator means adding an entry here and a weight in the configuration.
var catalog = []Indicator{
	{Code: "KI01", Name: "amount_deviation", rule: (*Evaluator).amountDeviation},
	{Code: "KI02", Name: "dormant_reactivation", rule: (*Evaluator).dormantReactivation},
	{Code: "KI03", Name: "new_payee_high_amount", rule: (*Evaluator).newPayeeHighAmount},
	{Code: "KI04", Name: "burst_activity", rule: (*Evaluator).burstActivity},
	{Code: "KI05", Name: "new_foreign_country", subScore: (*Evaluator).foreignCountryScore},
	{Code: "KI06", Name: "new_account_high_activity", rule: (*Evaluator).newAccountHighActivity},
	{Code: "KI07", Name: "payee_fan_out", rule: (*Evaluator).payeeFanOut},
	{Code: "KI08", Name: "young_account_activity", rule: (*Evaluator).youngAccountActivity},
	{Code: "KI09", Name: "digital_channel_high_amount", rule: (*Evaluator).digitalChannelHighAmount},
	{Code: "KI10", Name: "low_history_payee", rule: (*Evaluator).lowHistoryPayee},
	{Code: "KI11", Name: "high_risk_country", rule: (*Evaluator).highRiskCountry},
	{Code: "KI12", Name: "large_transaction_cluster", rule: (*Evaluator).largeTransactionCluster},
	{Code: "KI13", Name: "rapid_succession", rule: (*Evaluator).rapidSuccession},
	{Code: "KI14", Name: "known_name_new_account", rule: (*Evaluator).knownNameNewAccount},
	{Code: "KI15", Name: "high_daily_volume", rule: (*Evaluator).highDailyVolume},
	{Code: "KI16", Name: "currency_mismatch", rule: (*Evaluator).currencyMismatch},
	{Code: "KI18", Name: "off_hours", rule: (*Evaluator).offHours},
	{Code: "KI19", Name: "large_transfer_no_dual_approval", rule: (*Evaluator).largeTransferNoDualApproval},
}

// Catalog returns a copy of the indicator catalog.
func Catalog() []Indicator {
	out := make([]Indicator, len(catalog))
	copy(out, catalog)
	return out
}

func lookupIndicator(code string) (Indicator, bool) {
	for _, ind := range catalog {
		if ind.Code == code {
			return ind, true
		}
	}
	return Indicator{}, false
}

// featureAbove reports whether the named feature is present and > threshold.
func featureAbove(f model.Features, name string, threshold float64) bool {
	v, ok := f.Value(name)
	return ok && v > threshold
}

// featureAtMost reports whether the named feature is present and <= limit.
func featureAtMost(f model.Features, name string, limit float64) bool {
	v, ok := f.Value(name)
	return ok && v <= limit
}

func (e *Evaluator) amountDeviation(in EvaluationInput) bool {
	amount := in.Transaction.Amount.InexactFloat64()
	return math.Abs(amount-in.Profile.MeanAmount) > e.cfg.DeviationMultiplier*in.Profile.StdAmount
}

func (e *Evaluator) dormantReactivation(in EvaluationInput) bool {
	return featureAbove(in.Transaction.Features, model.FeatureActivityDaysAgo, e.cfg.DormantDays)
}

func (e *Evaluator) newPayeeHighAmount(in EvaluationInput) bool {
	if in.Context != nil && in.Context.KnowsParty(in.Transaction.PartyKey) {
		return false
	}
	return in.Transaction.Amount.GreaterThan(e.cfg.NewPayeeAmount)
}

func (e *Evaluator) burstActivity(in EvaluationInput) bool {
	return featureAbove(in.Transaction.Features, model.FeatureTxnCount24h, e.cfg.BurstCount)
}

// foreignCountryScore sums the risk of countries in the current-period
// history that are absent from the prior period, scaled down as the prior
// country diversity grows.
func (e *Evaluator) foreignCountryScore(in EvaluationInput) float64 {
	prior := countrySet(in.Transaction.PriorCountries)
	current := countrySet(in.Transaction.CurrentCountries)

	total := 0
	for code := range current {
		if _, known := prior[code]; !known {
			total += e.countries.Weight(code)
		}
	}
	if total == 0 {
		return 0
	}
	return float64(total) * e.countryScaling(len(prior))
}

func (e *Evaluator) countryScaling(priorCount int) float64 {
	for _, band := range e.cfg.CountryScaling {
		if priorCount <= band.MaxPriorCountries {
			return band.Factor
		}
	}
	return e.cfg.CountryScalingDefault
}

func (e *Evaluator) newAccountHighActivity(in EvaluationInput) bool {
	f := in.Transaction.Features
	return featureAtMost(f, model.FeatureAccountAgeDays, e.cfg.NewAccountAgeDays) &&
		featureAbove(f, model.FeatureTxnCount24h, e.cfg.NewAccountTxnCount)
}

func (e *Evaluator) payeeFanOut(in EvaluationInput) bool {
	return featureAbove(in.Transaction.Features, model.FeatureUniquePayees24h, e.cfg.PayeeFanOut)
}

func (e *Evaluator) youngAccountActivity(in EvaluationInput) bool {
	f := in.Transaction.Features
	return featureAtMost(f, model.FeatureAccountAgeDays, e.cfg.YoungAccountAgeDays) &&
		featureAbove(f, model.FeatureTxnCount24h, e.cfg.YoungAccountTxnCount)
}

func (e *Evaluator) digitalChannelHighAmount(in EvaluationInput) bool {
	_, digital := e.channels[strings.ToLower(strings.TrimSpace(in.Transaction.Channel))]
	return digital && in.Transaction.Amount.GreaterThan(e.cfg.DigitalChannelAmount)
}

func (e *Evaluator) lowHistoryPayee(in EvaluationInput) bool {
	usage, ok := in.Transaction.Features.Value(model.FeaturePayeeUsageCount)
	return ok && usage < e.cfg.LowHistoryUsage && in.Transaction.Amount.GreaterThan(e.cfg.LowHistoryAmount)
}

func (e *Evaluator) highRiskCountry(in EvaluationInput) bool {
	_, risky := e.highRisk[normalizeCountry(in.Transaction.CountryCode)]
	return risky
}

func (e *Evaluator) largeTransactionCluster(in EvaluationInput) bool {
	return featureAbove(in.Transaction.Features, model.FeatureLargeTxns2h, e.cfg.LargeTxnCluster)
}

func (e *Evaluator) rapidSuccession(in EvaluationInput) bool {
	if in.Context == nil || in.Context.Observed == 0 || e.cfg.RapidInterval <= 0 {
		return false
	}
	return in.Transaction.Timestamp.Sub(in.Context.LastSeenAt) < e.cfg.RapidInterval
}

func (e *Evaluator) knownNameNewAccount(in EvaluationInput) bool {
	return in.Transaction.Features.Flag(model.FeatureKnownNameNewAccount)
}

func (e *Evaluator) highDailyVolume(in EvaluationInput) bool {
	return featureAbove(in.Transaction.Features, model.FeatureTxnSum24h, e.cfg.DailyVolumeAmount)
}

func (e *Evaluator) currencyMismatch(in EvaluationInput) bool {
	typical := strings.TrimSpace(in.Profile.TypicalCurrency)
	actual := strings.TrimSpace(in.Transaction.Currency)
	return typical != "" && actual != "" && !strings.EqualFold(typical, actual)
}

func (e *Evaluator) offHours(in EvaluationInput) bool {
	local := in.Transaction.Timestamp.In(e.cfg.Location)
	if _, night := e.nightHours[local.Hour()]; night {
		return true
	}
	_, weekend := e.weekend[local.Weekday()]
	return weekend
}

func (e *Evaluator) largeTransferNoDualApproval(in EvaluationInput) bool {
	return in.Transaction.Amount.GreaterThan(e.cfg.HighValueAmount) && !in.Transaction.ApprovalFlag
}
