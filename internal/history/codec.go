package history

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/taixiu-ai/internal/models"
)

// persistedState is the on-disk record. Files written before the rename of
// the field to "history" used "pattern"; both are read.
type persistedState struct {
	History     []models.Outcome `json:"history"`
	LastUpdated int64            `json:"lastUpdated"`
}

func encodeState(s models.HistorySnapshot) ([]byte, error) {
	history := s.History
	if history == nil {
		history = []models.Outcome{}
	}
	return json.MarshalIndent(persistedState{History: history, LastUpdated: s.LastUpdated}, "", "  ")
}

// decodeState parses stored state. A missing or non-array history
// field yields an empty history; unknown symbols are dropped and the result is
// truncated to capacity. Only an unparseable document is an error.
func decodeState(data []byte, capacity int) (models.HistorySnapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.HistorySnapshot{History: []models.Outcome{}}, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}

	raw, ok := fields["history"]
	if !ok {
		raw = fields["pattern"]
	}

	var labels []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &labels); err != nil {
			labels = nil
		}
	}

	history := make([]models.Outcome, 0, len(labels))
	for _, l := range labels {
		if o := models.ParseOutcome(l); o.Valid() {
			history = append(history, o)
		}
	}
	if capacity > 0 && len(history) > capacity {
		history = history[len(history)-capacity:]
	}

	var lastUpdated float64
	if v, ok := fields["lastUpdated"]; ok {
		if err := json.Unmarshal(v, &lastUpdated); err != nil {
			lastUpdated = 0
		}
	}

	return models.HistorySnapshot{History: history, LastUpdated: int64(lastUpdated)}, nil
}
