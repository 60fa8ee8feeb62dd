package timeparse

import (
	"strconv"
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
)

// Resolver converts natural-language date/time expressions (English and
// Spanish) into timezone-qualified moments. Strategies run in strict priority
// order: explicit time extraction, manual relative-day rules, phrase-table
// translation, and finally a locale-aware statistical parser. The manual layer
// runs first because it is deterministic; the statistical parser is strictly a
// fallback and its output is year-corrected, since date libraries routinely
// anchor Spanish relative expressions to the wrong year.
type Resolver struct{}

// NewResolver builds a Resolver. It is stateless and safe for concurrent use.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve interprets text against the reference instant in the named timezone.
// Failures never default to "now": they return an UnresolvedError carrying the
// original input and example phrases.
func (r *Resolver) Resolve(text string, reference time.Time, tzName string) (*ResolvedMoment, error) {
	loc := Location(tzName)
	ref := reference.In(loc)
	lowered := strings.ToLower(strings.TrimSpace(text))

	clock, clockMatched, remainder := extractClockTime(lowered)

	// Manual relative-day rules first: deterministic and bilingual.
	if offset, ok := matchRelativeDay(lowered); ok {
		at := combine(ref.AddDate(0, 0, offset), clock, loc)
		return newResolvedMoment(at, tzName, MethodManualRule, text), nil
	}
	if daysAhead, ok := matchNextWeekday(lowered, ref); ok {
		at := combine(ref.AddDate(0, 0, daysAhead), clock, loc)
		return newResolvedMoment(at, tzName, MethodManualRule, text), nil
	}

	// A bare clock time with no date words resolves to the reference day.
	if clockMatched && fillerOnlyPattern.MatchString(remainder) {
		at := combine(ref, clock, loc)
		return newResolvedMoment(at, tzName, MethodRegexTime, text), nil
	}

	// Phrase-table translation, then the statistical parser on the translated
	// string and the raw original, in that order.
	translated, altered := translatePhrases(lowered)
	candidates := []string{}
	if altered {
		candidates = append(candidates, translated)
	}
	candidates = append(candidates, lowered)

	for _, candidate := range candidates {
		parsed, ok := r.parseStatistical(candidate, ref, loc)
		if !ok {
			continue
		}
		parsed = correctYear(parsed, ref)
		if clockMatched {
			parsed = combine(parsed, clock, loc)
		}
		method := MethodStatisticalParser
		if altered {
			method = MethodPhraseTranslation
		}
		return newResolvedMoment(parsed, tzName, method, text), nil
	}

	return nil, newUnresolvedError(text, ref)
}

// parseStatistical runs the locale-aware fallback parser: reference-anchored,
// timezone-aware, day-of-month "first" on ambiguity, DMY ordering for
// ambiguous numeric dates, future dates preferred.
func (r *Resolver) parseStatistical(text string, ref time.Time, loc *time.Location) (time.Time, bool) {
	cfg := &dateparser.Configuration{
		CurrentTime:         ref,
		DefaultTimezone:     loc,
		PreferredDayOfMonth: dateparser.First,
		PreferredDateSource: dateparser.Future,
		DateOrder:           func(string) string { return "DMY" },
		Languages:           []string{"en", "es"},
	}
	dt, err := dateparser.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	return dt.Time.In(loc), true
}

// clockTime is a 24-hour wall-clock time extracted from the input.
type clockTime struct {
	hour   int
	minute int
}

// extractClockTime walks the ordered time patterns and returns the first
// match converted to 24-hour form, defaulting to midnight. The remainder is
// the input with the matched portion removed, used to detect time-only inputs.
func extractClockTime(lowered string) (clockTime, bool, string) {
	for _, p := range timePatterns {
		m := p.re.FindStringSubmatchIndex(lowered)
		if m == nil {
			continue
		}
		groups := p.re.FindStringSubmatch(lowered)
		hour, err := strconv.Atoi(groups[1])
		if err != nil || hour > 23 {
			continue
		}
		minute := 0
		meridiem := ""
		if p.hasMinute {
			minute, _ = strconv.Atoi(groups[2])
			if p.hasMeridiem && len(groups) > 3 {
				meridiem = groups[3]
			}
		} else if p.hasMeridiem {
			meridiem = groups[2]
		}
		if minute > 59 {
			continue
		}
		hour = to24Hour(hour, meridiem)
		if hour > 23 {
			continue
		}
		remainder := lowered[:m[0]] + lowered[m[1]:]
		return clockTime{hour: hour, minute: minute}, true, remainder
	}
	return clockTime{}, false, lowered
}

// to24Hour applies am/pm: pm adds 12 unless the hour is 12, am maps 12 to 0.
func to24Hour(hour int, meridiem string) int {
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

// matchRelativeDay returns the day offset for mañana/tomorrow-style phrases.
func matchRelativeDay(lowered string) (int, bool) {
	for _, rule := range relativeDayRules {
		if strings.Contains(lowered, rule.phrase) {
			return rule.offset, true
		}
	}
	return 0, false
}

// matchNextWeekday handles "próximo viernes" / "next friday" and a weekday
// name co-occurring with a next-marker anywhere in the input. A bare weekday
// without a marker deliberately falls through to the translation path. The
// result is always strictly in the future: zero or negative distances gain a
// week.
func matchNextWeekday(lowered string, ref time.Time) (int, bool) {
	hasMarker := false
	for _, marker := range nextMarkers {
		if strings.Contains(lowered, marker) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return 0, false
	}
	for _, wd := range weekdayNames {
		if !strings.Contains(lowered, wd.name) {
			continue
		}
		daysAhead := (wd.day - mondayIndexed(ref.Weekday())) % 7
		if daysAhead <= 0 {
			daysAhead += 7
		}
		return daysAhead, true
	}
	return 0, false
}

// mondayIndexed renumbers time.Weekday to Monday=0 .. Sunday=6.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// translatePhrases rewrites known Spanish relative-day phrases and month-day
// constructions into English for the fallback parser. Reports whether the
// string was altered.
func translatePhrases(lowered string) (string, bool) {
	out := lowered
	for _, rep := range phraseReplacements {
		out = strings.ReplaceAll(out, rep.from, rep.to)
	}
	out = monthDayPattern.ReplaceAllStringFunc(out, func(match string) string {
		groups := monthDayPattern.FindStringSubmatch(match)
		return groups[1] + " " + monthNames[groups[2]]
	})
	out = alasPattern.ReplaceAllString(out, "at")
	return out, out != lowered
}

// correctYear defends against the statistical parser anchoring to the wrong
// year: parses landing in a past year are pulled up to the reference year, and
// parses still earlier in the year than the reference roll forward one year.
func correctYear(parsed, ref time.Time) time.Time {
	if parsed.Year() < ref.Year() {
		parsed = time.Date(ref.Year(), parsed.Month(), parsed.Day(),
			parsed.Hour(), parsed.Minute(), parsed.Second(), 0, parsed.Location())
	}
	if parsed.Year() == ref.Year() && beforeDate(parsed, ref) {
		parsed = parsed.AddDate(1, 0, 0)
	}
	return parsed
}

func beforeDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// combine keeps the date of base and applies the extracted wall-clock time.
func combine(base time.Time, clock clockTime, loc *time.Location) time.Time {
	y, m, d := base.In(loc).Date()
	return time.Date(y, m, d, clock.hour, clock.minute, 0, 0, loc)
}

// Location resolves a timezone name, treating UTC as a fixed zone and falling
// back to UTC when the name is empty or unknown.
func Location(tzName string) *time.Location {
	if tzName == "" || strings.EqualFold(tzName, "utc") {
		return time.UTC
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.UTC
	}
	return loc
}
