package ensemble

import (
	"fmt"
	"strings"

	"github.com/yourusername/taixiu-ai/internal/models"
)

// Explain renders the narrative attached to a prediction. It never fails; a
// nil result or empty history renders placeholders.
func Explain(history []models.Outcome, res *Result) string {
	if res == nil {
		res = &Result{Markov: MarkovDetail{PTai: 0.5, PXiu: 0.5}, Score: Score{PTai: 0.5, PXiu: 0.5}}
	}
	tai, xiu := Counts(history)
	m := res.Markov.Matrix

	lines := []string{
		fmt.Sprintf("AI TỔNG HỢP phân tích %d mẫu gần nhất: [%s] (T=Tài, X=Xỉu).", EvidenceCap, models.Pattern(history)),
		fmt.Sprintf("1) Thống kê: T=%d, X=%d, streak cuối: %s x%d.", tai, xiu, res.Streak.Symbol, res.Streak.Length),
		fmt.Sprintf("2) Markov(1): từ %s → P(T=%s, X=%s), ma trận chuyển: T→T=%d, T→X=%d, X→T=%d, X→X=%d.",
			Last(history), Fixed2(res.Markov.PTai), Fixed2(res.Markov.PXiu), m.TT, m.TX, m.XT, m.XX),
		fmt.Sprintf("3) Mẫu đảo/luân phiên: điểm alternation ≈ %s.", Fixed2(res.Alternation)),
		fmt.Sprintf("4) N-gram (k=%d): sau chuỗi đuôi gần nhất có T=%d, X=%d.", NGramOrder, res.NGram.Tai, res.NGram.Xiu),
		fmt.Sprintf("5) Run gần nhất: %s.", describeRuns(lastRuns(res.Runs, 3))),
		fmt.Sprintf("6) Ensemble %d mô hình (không random) cho tỷ lệ: Tài=%s%%, Xỉu=%s%%.", EstimatorCount, Fixed2(res.PTai*100), Fixed2(res.PXiu*100)),
		"→ Kết luận AI TỔNG HỢP chọn phương án có xác suất cao hơn, kèm độ tin cậy nội bộ (data-driven).",
	}
	return strings.Join(lines, " ")
}

func lastRuns(runs []Run, n int) []Run {
	if len(runs) <= n {
		return runs
	}
	return runs[len(runs)-n:]
}

func describeRuns(runs []Run) string {
	if len(runs) == 0 {
		return "-"
	}
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = fmt.Sprintf("%s:%d", r.Symbol, r.Length)
	}
	return strings.Join(parts, ", ")
}
