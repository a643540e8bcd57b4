package ensemble

import (
	"fmt"
	"math"

	"github.com/yourusername/taixiu-ai/internal/models"
)

// EstimatorCount is the number of estimators in the bank.
const EstimatorCount = 10

// EvidenceCap is the history length beyond which confidence stops growing.
const EvidenceCap = 20

// EstimateVector holds one P(next=T) value per estimator, in bank order.
type EstimateVector [EstimatorCount]float64

// estimatorNames labels the bank slots for logs, metrics and JSON.
var estimatorNames = [EstimatorCount]string{
	"frequency",
	"markov",
	"streak_reversal",
	"alternation",
	"ngram",
	"momentum",
	"run_length",
	"balance",
	"total_bias",
	"rhythm",
}

// weights sums to 1.0.
var weights = EstimateVector{0.12, 0.12, 0.10, 0.08, 0.12, 0.08, 0.08, 0.10, 0.10, 0.10}

// EstimatorNames returns the bank slot names.
func EstimatorNames() [EstimatorCount]string {
	return estimatorNames
}

// Weights returns the fixed combination weights.
func Weights() EstimateVector {
	return weights
}

// TotalRange is the domain of a single session's dice total.
type TotalRange struct {
	Min float64
	Max float64
}

// DefaultTotalRange covers three six-sided dice.
var DefaultTotalRange = TotalRange{Min: 3, Max: 18}

// Span returns Max-Min.
func (r TotalRange) Span() float64 {
	return r.Max - r.Min
}

// Validate rejects empty or inverted ranges.
func (r TotalRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Span() <= 0 {
		return fmt.Errorf("invalid total range [%v, %v]", r.Min, r.Max)
	}
	return nil
}

// Input is everything the estimators read.
type Input struct {
	History      []models.Outcome
	RecentTotals []float64
}

// Score is the combined forecast.
type Score struct {
	PTai       float64 `json:"p_tai"`
	PXiu       float64 `json:"p_xiu"`
	Confidence float64 `json:"confidence"`
}

// Predicted returns the side with the larger probability. Ties go to Tài.
func (s Score) Predicted() models.Outcome {
	if s.PTai >= s.PXiu {
		return models.OutcomeTai
	}
	return models.OutcomeXiu
}

// MarkovDetail carries the transition statistics behind estimator 2.
type MarkovDetail struct {
	Matrix TransitionMatrix `json:"matrix"`
	PTai   float64          `json:"p_tai"`
	PXiu   float64          `json:"p_xiu"`
}

// Result is a full ensemble evaluation. It is derived fresh on every call.
type Result struct {
	Score
	Estimates     EstimateVector `json:"estimates"`
	Weights       EstimateVector `json:"weights"`
	Markov        MarkovDetail   `json:"markov"`
	Streak        Streak         `json:"streak"`
	Alternation   float64        `json:"alternation"`
	NGram         NGramCounts    `json:"ngram"`
	Runs          []Run          `json:"runs"`
	Balance       float64        `json:"balance"`
	HistoryLength int            `json:"history_length"`
}

// Engine evaluates the estimator bank and combines the results.
type Engine struct {
	totals TotalRange
}

// NewEngine validates the total range and the rhythm table.
func NewEngine(totals TotalRange) (*Engine, error) {
	if err := totals.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRhythmTable(); err != nil {
		return nil, err
	}
	return &Engine{totals: totals}, nil
}

// Estimate runs all ten estimators.
func (e *Engine) Estimate(in Input) EstimateVector {
	h := in.History
	return EstimateVector{
		Frequency(h),
		Markov(h),
		StreakReversal(h),
		Alternation(h),
		NGram(h),
		Momentum(h),
		RunLengthStreak(h),
		BalanceAmplifier(h),
		TotalBias(in.RecentTotals, e.totals),
		Rhythm(h),
	}
}

// Combine applies the fixed weights to v. Confidence grows with both the
// distance from 50/50 and the amount of history, capped at 1.
func Combine(v EstimateVector, historyLength int) Score {
	var pTai float64
	for i, w := range weights {
		pTai += v[i] * w
	}
	pTai = clamp01(pTai)

	evidence := historyLength
	if evidence > EvidenceCap {
		evidence = EvidenceCap
	}
	if evidence < 0 {
		evidence = 0
	}
	return Score{
		PTai:       pTai,
		PXiu:       1 - pTai,
		Confidence: clamp01(0.4 + math.Abs(pTai-0.5)*1.2 + float64(evidence)*0.01),
	}
}

// Analyze estimates, combines and collects the supporting statistics.
func (e *Engine) Analyze(in Input) *Result {
	h := in.History
	v := e.Estimate(in)
	mPTai, mPXiu := Transitions(h).Next(Last(h))

	return &Result{
		Score:     Combine(v, len(h)),
		Estimates: v,
		Weights:   weights,
		Markov: MarkovDetail{
			Matrix: Transitions(h),
			PTai:   mPTai,
			PXiu:   mPXiu,
		},
		Streak:        TrailingStreak(h),
		Alternation:   AlternationScore(h),
		NGram:         NGramFollowers(h, NGramOrder),
		Runs:          Runs(h),
		Balance:       math.Abs(Frequency(h) - 0.5),
		HistoryLength: len(h),
	}
}
