package models

// Session is one game record as returned by the upstream sessions endpoint.
type Session struct {
	ID     int64  `json:"id"`
	Result string `json:"resultTruyenThong"`
	Dices  []int  `json:"dices"`
	Point  *int   `json:"point"`
}

// SessionList is the upstream payload envelope.
type SessionList struct {
	List []Session `json:"list"`
}

// Outcome returns the normalized result of the session.
func (s Session) Outcome() Outcome {
	return ParseOutcome(s.Result)
}
