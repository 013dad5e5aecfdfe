// Package command assembles and validates line-oriented frequency commands.
package command

import (
	"math"
	"strconv"
)

// Frequency bounds accepted from a command line, both exclusive.
const (
	MinFrequencyHz = 20
	MaxFrequencyHz = 20000
)

// MaxLineLen caps the pending buffer between terminators. A line that grows
// past it is rejected on the spot and the rest of it is discarded.
const MaxLineLen = 32

// Verdict says what a finished line amounted to.
type Verdict int

const (
	// VerdictApplied means the line parsed to an in-range frequency.
	VerdictApplied Verdict = iota
	// VerdictRejected means the line was malformed, out of range, or too long.
	VerdictRejected
)

func (v Verdict) String() string {
	if v == VerdictApplied {
		return "applied"
	}
	return "rejected"
}

// Outcome is the result of a terminated command line.
type Outcome struct {
	Verdict   Verdict
	Frequency float64 // set when applied
	Reason    string  // set when rejected
	Line      string  // the accumulated text the outcome was derived from
}

// Accumulator assembles frequency commands one byte at a time. Digits and
// the decimal point accumulate, '\n' or '\r' terminates a line, and every
// other byte is ignored. Not safe for concurrent use; each input stream
// feeds its own accumulator.
type Accumulator struct {
	pending    []byte
	discarding bool
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{pending: make([]byte, 0, MaxLineLen)}
}

// Feed consumes one byte. The returned outcome is meaningful only when ok
// is true, which happens when a terminator arrives on a non-empty line or
// when the line just overflowed MaxLineLen. A terminator on an empty line
// produces nothing.
func (a *Accumulator) Feed(c byte) (out Outcome, ok bool) {
	switch {
	case c == '\n' || c == '\r':
		wasDiscarding := a.discarding
		a.discarding = false
		if wasDiscarding || len(a.pending) == 0 {
			return Outcome{}, false
		}
		return a.finish(), true
	case a.discarding:
		return Outcome{}, false
	case c >= '0' && c <= '9' || c == '.':
		if len(a.pending) >= MaxLineLen {
			line := string(a.pending)
			a.pending = a.pending[:0]
			a.discarding = true
			return Outcome{Verdict: VerdictRejected, Reason: "line too long", Line: line}, true
		}
		a.pending = append(a.pending, c)
		return Outcome{}, false
	default:
		return Outcome{}, false
	}
}

// finish parses and validates the pending line, clearing it unconditionally
// so a rejected line never contaminates the next one.
func (a *Accumulator) finish() Outcome {
	line := string(a.pending)
	a.pending = a.pending[:0]

	f, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return Outcome{Verdict: VerdictRejected, Reason: "not a number", Line: line}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= MinFrequencyHz || f >= MaxFrequencyHz {
		return Outcome{Verdict: VerdictRejected, Reason: "out of range", Line: line}
	}
	return Outcome{Verdict: VerdictApplied, Frequency: f, Line: line}
}
