package models

// WinRates holds the formatted win probability of each side.
type WinRates struct {
	Tai string `json:"Tai"`
	Xiu string `json:"Xiu"`
}

// PredictionReport is the flat object returned to API callers.
type PredictionReport struct {
	Session     int64     `json:"session"`
	Dice        []int     `json:"dice"`
	Total       *int      `json:"total"`
	Result      *string   `json:"result"`
	NextSession int64     `json:"next_session"`
	Prediction  string    `json:"du_doan"`
	Confidence  string    `json:"do_tin_cay"`
	Explanation string    `json:"giai_thich"`
	Pattern     []Outcome `json:"pattern"`
	WinRates    WinRates  `json:"ty_le"`
	Tag         string    `json:"id"`
}

// HistorySnapshot is a point-in-time copy of the rolling history.
type HistorySnapshot struct {
	History     []Outcome `json:"history"`
	LastUpdated int64     `json:"lastUpdated"`
}
