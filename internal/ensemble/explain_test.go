package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainRendersStatistics(t *testing.T) {
	engine, err := NewEngine(DefaultTotalRange)
	require.NoError(t, err)

	h := seq("TTTXXTTTTX")
	text := Explain(h, engine.Analyze(Input{History: h}))

	assert.Contains(t, text, "[TTTXXTTTTX]")
	assert.Contains(t, text, "T=7, X=3, streak cuối: X x1.")
	assert.Contains(t, text, "từ X → P(T=0.50, X=0.50)")
	assert.Contains(t, text, "T→T=5, T→X=2, X→T=1, X→X=1")
	assert.Contains(t, text, "điểm alternation ≈ 0.00")
	assert.Contains(t, text, "N-gram (k=3): sau chuỗi đuôi gần nhất có T=0, X=1.")
	assert.Contains(t, text, "Run gần nhất: X:2, T:4, X:1.")
	assert.Contains(t, text, "Tài=52.54%, Xỉu=47.46%")
}

func TestExplainRoundsHalvesUp(t *testing.T) {
	res := &Result{
		Score:       Score{PTai: 0.56125, PXiu: 0.43875},
		Markov:      MarkovDetail{PTai: 0.625, PXiu: 0.375},
		Alternation: 0.625,
	}

	text := Explain(seq("TX"), res)
	assert.Contains(t, text, "P(T=0.63, X=0.38)")
	assert.Contains(t, text, "điểm alternation ≈ 0.63.")
	assert.Contains(t, text, "Tài=56.13%, Xỉu=43.88%")
}

func TestExplainDegenerateInputs(t *testing.T) {
	engine, err := NewEngine(DefaultTotalRange)
	require.NoError(t, err)

	text := Explain(nil, engine.Analyze(Input{}))
	assert.Contains(t, text, "[]")
	assert.Contains(t, text, "streak cuối: - x0.")
	assert.Contains(t, text, "từ - →")
	assert.Contains(t, text, "Run gần nhất: -.")

	assert.NotPanics(t, func() {
		assert.NotEmpty(t, Explain(nil, nil))
	})
}
