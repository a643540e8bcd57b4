// Package ensemble implements the deterministic Tài/Xỉu forecaster: ten
// heuristic estimators over the rolling history, their weighted combination
// and the narrative explanation attached to every prediction.
package ensemble

import (
	"github.com/yourusername/taixiu-ai/internal/models"
)

// Run is a maximal block of identical consecutive outcomes.
type Run struct {
	Symbol models.Outcome `json:"symbol"`
	Length int            `json:"length"`
}

// Streak is the run ending at the most recent history entry.
// A zero Streak (Symbol unknown, Length 0) means the history is empty.
type Streak = Run

// NGramCounts counts what followed every earlier occurrence of the history tail.
type NGramCounts struct {
	Tai int `json:"T"`
	Xiu int `json:"X"`
}

// Total returns the number of matches.
func (c NGramCounts) Total() int {
	return c.Tai + c.Xiu
}

// TransitionMatrix holds first-order transition counts between adjacent entries.
type TransitionMatrix struct {
	TT int `json:"TT"`
	TX int `json:"TX"`
	XT int `json:"XT"`
	XX int `json:"XX"`
}

// From returns the counts of transitions leaving the given symbol.
func (m TransitionMatrix) From(o models.Outcome) (toTai, toXiu int) {
	switch o {
	case models.OutcomeTai:
		return m.TT, m.TX
	case models.OutcomeXiu:
		return m.XT, m.XX
	default:
		return 0, 0
	}
}

// Next returns P(next=T) and P(next=X) given the current symbol, or 0.5/0.5
// when no transition out of that symbol has been observed.
func (m TransitionMatrix) Next(o models.Outcome) (pTai, pXiu float64) {
	toTai, toXiu := m.From(o)
	total := toTai + toXiu
	if total == 0 {
		return 0.5, 0.5
	}
	return float64(toTai) / float64(total), float64(toXiu) / float64(total)
}

// Counts returns how many entries of each symbol the history holds.
func Counts(history []models.Outcome) (tai, xiu int) {
	for _, o := range history {
		switch o {
		case models.OutcomeTai:
			tai++
		case models.OutcomeXiu:
			xiu++
		}
	}
	return tai, xiu
}

// Last returns the most recent outcome, or unknown for an empty history.
func Last(history []models.Outcome) models.Outcome {
	if len(history) == 0 {
		return models.OutcomeUnknown
	}
	return history[len(history)-1]
}

// TrailingStreak returns the run that ends at the last entry.
func TrailingStreak(history []models.Outcome) Streak {
	n := len(history)
	if n == 0 {
		return Streak{}
	}
	length := 1
	for i := n - 2; i >= 0 && history[i] == history[i+1]; i-- {
		length++
	}
	return Streak{Symbol: history[n-1], Length: length}
}

// Runs partitions the history into its ordered sequence of runs.
func Runs(history []models.Outcome) []Run {
	if len(history) == 0 {
		return nil
	}
	runs := make([]Run, 0, len(history))
	current := Run{Symbol: history[0], Length: 1}
	for _, o := range history[1:] {
		if o == current.Symbol {
			current.Length++
			continue
		}
		runs = append(runs, current)
		current = Run{Symbol: o, Length: 1}
	}
	return append(runs, current)
}

// Transitions counts adjacent (x, y) pairs over the whole history.
func Transitions(history []models.Outcome) TransitionMatrix {
	var m TransitionMatrix
	for i := 0; i+1 < len(history); i++ {
		switch {
		case history[i] == models.OutcomeTai && history[i+1] == models.OutcomeTai:
			m.TT++
		case history[i] == models.OutcomeTai && history[i+1] == models.OutcomeXiu:
			m.TX++
		case history[i] == models.OutcomeXiu && history[i+1] == models.OutcomeTai:
			m.XT++
		case history[i] == models.OutcomeXiu && history[i+1] == models.OutcomeXiu:
			m.XX++
		}
	}
	return m
}

// AlternationScore is the share of positions i>=2 where the entries at i-2, i-1
// and i form a strict A,B,A pattern. It is 0 for histories shorter than 3.
func AlternationScore(history []models.Outcome) float64 {
	n := len(history)
	if n < 3 {
		return 0
	}
	alternating := 0
	for i := 2; i < n; i++ {
		if history[i] != history[i-1] && history[i-1] != history[i-2] && history[i] == history[i-2] {
			alternating++
		}
	}
	return float64(alternating) / float64(n-2)
}

// NGramFollowers scans every overlapping window of length k that precedes the
// final entry and counts what followed the windows equal to the last k entries.
func NGramFollowers(history []models.Outcome, k int) NGramCounts {
	var counts NGramCounts
	n := len(history)
	if k <= 0 || n <= k {
		return counts
	}
	tail := history[n-k:]
	for i := 0; i+k < n; i++ {
		if !equalWindow(history[i:i+k], tail) {
			continue
		}
		switch history[i+k] {
		case models.OutcomeTai:
			counts.Tai++
		case models.OutcomeXiu:
			counts.Xiu++
		}
	}
	return counts
}

func equalWindow(a, b []models.Outcome) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
