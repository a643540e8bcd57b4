package ensemble

import (
	"fmt"
	"strconv"
	"strings"
)

// rhythmBias maps hyphen-joined run lengths to the base probability of the
// last run's symbol. The two-part keys can never match a three-run key; they
// are kept so the table reads the same as the published heuristic.
var rhythmBias = map[string]float64{
	"1-1":   0.55,
	"1-2-1": 0.58,
	"2-1-2": 0.58,
	"2-2":   0.57,
	"3-1":   0.55,
	"1-3":   0.55,
	"2-3":   0.56,
	"3-2":   0.56,
	"4-1":   0.58,
	"1-4":   0.58,
}

// RhythmKey joins run lengths with hyphens, e.g. "1-2-1".
func RhythmKey(runs []Run) string {
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = strconv.Itoa(r.Length)
	}
	return strings.Join(parts, "-")
}

// RhythmBias returns the table value for key.
func RhythmBias(key string) (float64, bool) {
	v, ok := rhythmBias[key]
	return v, ok
}

// ValidateRhythmTable checks that every key is a list of positive lengths and
// every value a probability.
func ValidateRhythmTable() error {
	for key, v := range rhythmBias {
		if v < 0 || v > 1 {
			return fmt.Errorf("rhythm bias %q out of range: %v", key, v)
		}
		for _, part := range strings.Split(key, "-") {
			n, err := strconv.Atoi(part)
			if err != nil || n <= 0 {
				return fmt.Errorf("rhythm bias key %q is malformed", key)
			}
		}
	}
	return nil
}
