package timeparse

import "regexp"

// The rule tables below are data, not code: the resolver walks them in the
// declared order and the first match wins. Keeping them as tables makes each
// rule unit-testable on its own and keeps the bilingual surface in one place.

// relativeDayRule maps a literal phrase to a day offset from the reference date.
type relativeDayRule struct {
	phrase string
	offset int
}

// Longer phrases come first so "pasado mañana" is never shadowed by "mañana".
var relativeDayRules = []relativeDayRule{
	{"pasado mañana", 2},
	{"pasado manana", 2},
	{"day after tomorrow", 2},
	{"mañana", 1},
	{"manana", 1},
	{"tomorrow", 1},
	{"hoy", 0},
	{"today", 0},
}

// weekdayName maps a weekday word to its number, Monday=0 .. Sunday=6.
// Spanish entries appear in accented and unaccented forms.
type weekdayName struct {
	name string
	day  int
}

var weekdayNames = []weekdayName{
	{"lunes", 0},
	{"monday", 0},
	{"martes", 1},
	{"tuesday", 1},
	{"miércoles", 2},
	{"miercoles", 2},
	{"wednesday", 2},
	{"jueves", 3},
	{"thursday", 3},
	{"viernes", 4},
	{"friday", 4},
	{"sábado", 5},
	{"sabado", 5},
	{"saturday", 5},
	{"domingo", 6},
	{"sunday", 6},
}

// nextMarkers are the words that turn a bare weekday into a forward-looking one.
var nextMarkers = []string{"próximo", "proximo", "next"}

// timePattern is one alternative of the explicit-time extractor. Patterns are
// tried in declaration order; group 1 is the hour, group 2 the minutes when
// hasMinute is set, and the last group the am/pm marker when hasMeridiem is set.
type timePattern struct {
	re          *regexp.Regexp
	hasMinute   bool
	hasMeridiem bool
}

var timePatterns = []timePattern{
	// "a la 1 pm" (singular, Spanish)
	{regexp.MustCompile(`a la (\d{1,2})\s*(pm|am)`), false, true},
	// "a las 8:30 pm" / "a las 8:30"
	{regexp.MustCompile(`a las (\d{1,2}):(\d{2})(?:\s*(pm|am))?`), true, true},
	// "a las 8 pm"
	{regexp.MustCompile(`a las (\d{1,2})\s*(pm|am)`), false, true},
	// "at 2 pm"
	{regexp.MustCompile(`at (\d{1,2})\s*(pm|am)`), false, true},
	// bare "14:30"
	{regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`), true, false},
	// bare "2pm"
	{regexp.MustCompile(`\b(\d{1,2})\s*(pm|am)\b`), false, true},
}

// phraseReplacement rewrites a known Spanish relative-day phrase into the
// English equivalent the fallback parser understands. Ordered: longer phrases
// first.
type phraseReplacement struct {
	from string
	to   string
}

var phraseReplacements = buildPhraseReplacements()

func buildPhraseReplacements() []phraseReplacement {
	out := []phraseReplacement{
		{"pasado mañana", "day after tomorrow"},
		{"pasado manana", "day after tomorrow"},
	}
	weekdays := []struct {
		es []string
		en string
	}{
		{[]string{"lunes"}, "monday"},
		{[]string{"martes"}, "tuesday"},
		{[]string{"miércoles", "miercoles"}, "wednesday"},
		{[]string{"jueves"}, "thursday"},
		{[]string{"viernes"}, "friday"},
		{[]string{"sábado", "sabado"}, "saturday"},
		{[]string{"domingo"}, "sunday"},
	}
	for _, wd := range weekdays {
		for _, es := range wd.es {
			out = append(out,
				phraseReplacement{"próximo " + es, "next " + wd.en},
				phraseReplacement{"proximo " + es, "next " + wd.en},
			)
		}
	}
	out = append(out,
		phraseReplacement{"mañana", "tomorrow"},
		phraseReplacement{"manana", "tomorrow"},
	)
	return out
}

// monthNames translates Spanish month names for the "el N de <mes>" rewrite.
var monthNames = map[string]string{
	"enero":      "january",
	"febrero":    "february",
	"marzo":      "march",
	"abril":      "april",
	"mayo":       "may",
	"junio":      "june",
	"julio":      "july",
	"agosto":     "august",
	"septiembre": "september",
	"setiembre":  "september",
	"octubre":    "october",
	"noviembre":  "november",
	"diciembre":  "december",
}

// monthDayPattern matches Spanish month-day constructions such as
// "el 15 de enero" and the "el 15 de enero a las ..." continuation.
var monthDayPattern = regexp.MustCompile(`el (\d{1,2}) de (enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)`)

// alasPattern rewrites the Spanish time connector so translated strings read
// naturally for the fallback parser.
var alasPattern = regexp.MustCompile(`\ba las?\b`)

// fillerOnlyPattern reports whether the text left after removing an explicit
// time carries no date information at all.
var fillerOnlyPattern = regexp.MustCompile(`^[\s.,;:!?¡¿-]*(?:(?:a|la|las|at|el)[\s.,;:!?¡¿-]*)*$`)
