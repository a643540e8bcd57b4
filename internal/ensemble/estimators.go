package ensemble

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/yourusername/taixiu-ai/internal/models"
)

// NGramOrder is the window length used by the k-gram lookahead estimator.
const NGramOrder = 3

// MomentumWindow is how many recent entries the momentum estimator looks at.
const MomentumWindow = 5

// Frequency is the share of Tài over the whole history.
func Frequency(history []models.Outcome) float64 {
	if len(history) == 0 {
		return 0.5
	}
	tai, _ := Counts(history)
	return float64(tai) / float64(len(history))
}

// Markov is P(next=T | last symbol) from first-order transition counts.
func Markov(history []models.Outcome) float64 {
	if len(history) < 2 {
		return 0.5
	}
	pTai, _ := Transitions(history).Next(Last(history))
	return pTai
}

// StreakReversal leans against short streaks and toward long ones.
func StreakReversal(history []models.Outcome) float64 {
	st := TrailingStreak(history)
	if !st.Symbol.Valid() {
		return 0.5
	}
	tai := st.Symbol == models.OutcomeTai
	switch {
	case st.Length <= 2:
		return pick(tai, 0.35, 0.65)
	case st.Length == 3:
		return pick(tai, 0.55, 0.45)
	default:
		return pick(tai, 0.60, 0.40)
	}
}

// Alternation biases against repeating the last symbol in proportion to the
// alternation score.
func Alternation(history []models.Outcome) float64 {
	score := AlternationScore(history)
	if Last(history) == models.OutcomeTai {
		return 0.5 - 0.3*score
	}
	return 0.5 + 0.3*score
}

// NGram is the share of Tài among what followed earlier occurrences of the
// last NGramOrder symbols.
func NGram(history []models.Outcome) float64 {
	counts := NGramFollowers(history, NGramOrder)
	if counts.Total() == 0 {
		return 0.5
	}
	return float64(counts.Tai) / float64(counts.Total())
}

// Momentum is the share of Tài among the last MomentumWindow entries.
func Momentum(history []models.Outcome) float64 {
	n := len(history)
	if n == 0 {
		return 0.5
	}
	k := n
	if k > MomentumWindow {
		k = MomentumWindow
	}
	return Frequency(history[n-k:])
}

// RunLengthStreak scales a continuation bias by how long the current streak is
// relative to the mean run length.
func RunLengthStreak(history []models.Outcome) float64 {
	st := TrailingStreak(history)
	if !st.Symbol.Valid() {
		return 0.5
	}
	bias := 0.05 * (float64(st.Length) / meanRunLength(Runs(history)))
	if st.Symbol == models.OutcomeTai {
		return clamp01(0.45 + bias)
	}
	return clamp01(0.55 - bias)
}

// BalanceAmplifier pushes the overall frequency skew further by its own size.
func BalanceAmplifier(history []models.Outcome) float64 {
	freq := Frequency(history)
	dev := math.Abs(freq - 0.5)
	return clamp01(0.5 + (freq-0.5)*(0.8+dev))
}

// TotalBias maps the mean of recent dice totals onto [0.4, 0.8].
func TotalBias(totals []float64, r TotalRange) float64 {
	avg, err := stats.Mean(totals)
	if err != nil {
		return 0.5
	}
	norm := clamp01((avg - r.Min) / r.Span())
	return 0.4 + 0.4*norm
}

// Rhythm looks up the lengths of the last three runs in the rhythm bias table
// and orients the result toward the symbol of the last run.
func Rhythm(history []models.Outcome) float64 {
	runs := Runs(history)
	if len(runs) < 3 {
		return 0.5
	}
	last3 := runs[len(runs)-3:]
	base, ok := RhythmBias(RhythmKey(last3))
	if !ok {
		base = 0.5
	}
	if last3[2].Symbol == models.OutcomeTai {
		return base
	}
	return 1 - base
}

func meanRunLength(runs []Run) float64 {
	lengths := make([]float64, len(runs))
	for i, r := range runs {
		lengths[i] = float64(r.Length)
	}
	mean, err := stats.Mean(lengths)
	if err != nil || mean == 0 {
		return 1
	}
	return mean
}

func pick(tai bool, ifTai, ifXiu float64) float64 {
	if tai {
		return ifTai
	}
	return ifXiu
}
