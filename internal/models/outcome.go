package models

import "strings"

// Outcome is the result symbol of a single game session.
type Outcome string

const (
	// OutcomeTai is the high side ("Tài").
	OutcomeTai Outcome = "T"
	// OutcomeXiu is the low side ("Xỉu").
	OutcomeXiu Outcome = "X"
	// OutcomeUnknown marks a label that could not be normalized. It is never stored in history.
	OutcomeUnknown Outcome = ""
)

// ParseOutcome normalizes a free-form upstream label into an Outcome.
func ParseOutcome(raw string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TAI", "TÀI", "T":
		return OutcomeTai
	case "XIU", "XỈU", "X":
		return OutcomeXiu
	default:
		return OutcomeUnknown
	}
}

// Valid reports whether o is one of the two known symbols.
func (o Outcome) Valid() bool {
	return o == OutcomeTai || o == OutcomeXiu
}

// Opposite returns the other symbol. Unknown stays unknown.
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeTai:
		return OutcomeXiu
	case OutcomeXiu:
		return OutcomeTai
	default:
		return OutcomeUnknown
	}
}

// Display returns the Vietnamese display name.
func (o Outcome) Display() string {
	if o == OutcomeTai {
		return "Tài"
	}
	return "Xỉu"
}

// Label returns the upstream-style ASCII label, or "" for unknown.
func (o Outcome) Label() string {
	switch o {
	case OutcomeTai:
		return "TAI"
	case OutcomeXiu:
		return "XIU"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o == OutcomeUnknown {
		return "-"
	}
	return string(o)
}

// Pattern renders a history as a compact string such as "TTXT".
func Pattern(history []Outcome) string {
	var b strings.Builder
	b.Grow(len(history))
	for _, o := range history {
		b.WriteString(string(o))
	}
	return b.String()
}
