package timeparse

import (
	"fmt"
	"time"
)

// Method identifies which resolution strategy produced a ResolvedMoment.
type Method string

const (
	MethodManualRule        Method = "manual_rule"
	MethodRegexTime         Method = "regex_time"
	MethodPhraseTranslation Method = "phrase_translation"
	MethodStatisticalParser Method = "statistical_parser"
)

// ResolvedMoment is a fully disambiguated, timezone-qualified point in time
// derived from free-form text. Date and Time are always derived from At and
// never drift from ISODatetime.
type ResolvedMoment struct {
	At            time.Time
	ISODatetime   string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM, 24h
	Timezone      string
	Method        Method
	OriginalInput string
}

func newResolvedMoment(at time.Time, tzName string, method Method, input string) *ResolvedMoment {
	return &ResolvedMoment{
		At:            at,
		ISODatetime:   at.Format(time.RFC3339),
		Date:          at.Format("2006-01-02"),
		Time:          at.Format("15:04"),
		Timezone:      tzName,
		Method:        method,
		OriginalInput: input,
	}
}

// UnresolvedError reports that no strategy could interpret the input. It
// carries example phrases the caller can surface to the end user.
type UnresolvedError struct {
	Input         string
	ReferenceDate string
	Suggestions   []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("timeparse: could not interpret %q (reference date %s)", e.Input, e.ReferenceDate)
}

func newUnresolvedError(input string, ref time.Time) *UnresolvedError {
	return &UnresolvedError{
		Input:         input,
		ReferenceDate: ref.Format("2006-01-02"),
		Suggestions: []string{
			"tomorrow at 2pm",
			"next friday at 8pm",
			"2024-12-25 at 15:00",
			"in 2 days at 3pm",
		},
	}
}
