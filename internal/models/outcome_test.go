package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		raw  string
		want Outcome
	}{
		{"TAI", OutcomeTai},
		{"tai", OutcomeTai},
		{" Tài ", OutcomeTai},
		{"T", OutcomeTai},
		{"XIU", OutcomeXiu},
		{"Xỉu", OutcomeXiu},
		{"x", OutcomeXiu},
		{"", OutcomeUnknown},
		{"BAO", OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOutcome(tt.raw))
		})
	}
}

func TestOutcomeHelpers(t *testing.T) {
	assert.True(t, OutcomeTai.Valid())
	assert.True(t, OutcomeXiu.Valid())
	assert.False(t, OutcomeUnknown.Valid())

	assert.Equal(t, OutcomeXiu, OutcomeTai.Opposite())
	assert.Equal(t, OutcomeTai, OutcomeXiu.Opposite())
	assert.Equal(t, OutcomeUnknown, OutcomeUnknown.Opposite())

	assert.Equal(t, "Tài", OutcomeTai.Display())
	assert.Equal(t, "Xỉu", OutcomeXiu.Display())
	assert.Equal(t, "TAI", OutcomeTai.Label())
	assert.Equal(t, "", OutcomeUnknown.Label())
	assert.Equal(t, "-", OutcomeUnknown.String())

	assert.Equal(t, "TTX", Pattern([]Outcome{OutcomeTai, OutcomeTai, OutcomeXiu}))
	assert.Equal(t, "", Pattern(nil))
}

func TestSessionDecode(t *testing.T) {
	payload := `{"list":[{"id":42,"resultTruyenThong":"XIU","dices":[1,2,3],"point":6},{"id":41,"resultTruyenThong":"TAI","dices":[]}]}`

	var list SessionList
	require.NoError(t, json.Unmarshal([]byte(payload), &list))
	require.Len(t, list.List, 2)

	first := list.List[0]
	assert.Equal(t, int64(42), first.ID)
	assert.Equal(t, OutcomeXiu, first.Outcome())
	require.NotNil(t, first.Point)
	assert.Equal(t, 6, *first.Point)

	assert.Nil(t, list.List[1].Point)
	assert.Equal(t, OutcomeTai, list.List[1].Outcome())
}
