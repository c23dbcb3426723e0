// Package recurrence decides whether a recurring itinerary item or driver
// assignment applies on a given calendar date.
//
// Every function here is a pure function of its inputs. Malformed pattern data
// never panics: it resolves to "no match" and, through Evaluate, an error the
// caller can log.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/desaismitha/Shered-sub002/internal/domain"
)

// maxOccurrenceSpan bounds Occurrences so a corrupt range cannot allocate
// an unbounded slice.
const maxOccurrenceSpan = 3660

var dayCodes = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Applies reports whether p matches date within the inclusive range r.
// Malformed input yields false.
func Applies(p domain.RecurrencePattern, r domain.DateRange, date time.Time) bool {
	ok, _ := Evaluate(p, r, date)
	return ok
}

// Evaluate is Applies with the reason a pattern could not be evaluated.
// The returned error wraps domain.ErrValidation and is non-nil only for
// malformed input (missing or inverted range, unknown kind, bad day set);
// in that case the boolean is always false.
//
// An empty Kind is treated as RecurNone.
func Evaluate(p domain.RecurrencePattern, r domain.DateRange, date time.Time) (bool, error) {
	start, end, err := normalizeRange(r)
	if err != nil {
		return false, err
	}
	day := civil(date)
	if day.Before(start) || day.After(end) {
		return false, nil
	}

	wd := day.Weekday()
	switch p.Kind {
	case domain.RecurNone, "":
		return day.Equal(start), nil
	case domain.RecurDaily:
		return true, nil
	case domain.RecurWeekdays:
		return wd != time.Saturday && wd != time.Sunday, nil
	case domain.RecurWeekends:
		return wd == time.Saturday || wd == time.Sunday, nil
	case domain.RecurSpecificDays, domain.RecurCustom:
		set, err := weekdaySet(p.Days)
		if err != nil {
			return false, err
		}
		return set[wd], nil
	case domain.RecurWeekly:
		return wd == start.Weekday(), nil
	case domain.RecurMonthly:
		return day.Day() == min(start.Day(), daysIn(day.Year(), day.Month())), nil
	default:
		return false, fmt.Errorf("%w: unknown recurrence kind %q", domain.ErrValidation, p.Kind)
	}
}

// Occurrences lists every date in r matched by p, in ascending order.
func Occurrences(p domain.RecurrencePattern, r domain.DateRange) ([]time.Time, error) {
	start, end, err := normalizeRange(r)
	if err != nil {
		return nil, err
	}
	if span := int(end.Sub(start).Hours()/24) + 1; span > maxOccurrenceSpan {
		return nil, fmt.Errorf("%w: range spans %d days, limit is %d", domain.ErrValidation, span, maxOccurrenceSpan)
	}

	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ok, err := Evaluate(p, domain.DateRange{Start: start, End: end}, d)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// ParseDays parses the comma-separated storage form of a day set, e.g.
// "mon, wed,FRI". An empty string or any unknown code is an error.
func ParseDays(raw string) ([]time.Weekday, error) {
	set, err := weekdaySet(strings.Split(raw, ","))
	if err != nil {
		return nil, err
	}
	out := make([]time.Weekday, 0, len(set))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if set[wd] {
			out = append(out, wd)
		}
	}
	return out, nil
}

// Validate reports whether p can be evaluated at all, independent of dates.
// Services call it on write so bad patterns are rejected early; reads still
// fail closed through Evaluate.
func Validate(p domain.RecurrencePattern) error {
	switch p.Kind {
	case domain.RecurNone, "", domain.RecurDaily, domain.RecurWeekdays,
		domain.RecurWeekends, domain.RecurWeekly, domain.RecurMonthly:
		return nil
	case domain.RecurSpecificDays, domain.RecurCustom:
		_, err := weekdaySet(p.Days)
		return err
	}
	return fmt.Errorf("%w: unknown recurrence kind %q", domain.ErrValidation, p.Kind)
}

// weekdaySet fails closed: an empty set or one containing an unknown code
// is an error rather than "every day".
func weekdaySet(codes []string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool, len(codes))
	for _, c := range codes {
		code := strings.ToLower(strings.TrimSpace(c))
		if code == "" {
			continue
		}
		wd, ok := dayCodes[code]
		if !ok {
			return nil, fmt.Errorf("%w: unknown day code %q", domain.ErrValidation, c)
		}
		set[wd] = true
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: day set is empty", domain.ErrValidation)
	}
	return set, nil
}

func normalizeRange(r domain.DateRange) (time.Time, time.Time, error) {
	if r.Start.IsZero() || r.End.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date range is required", domain.ErrValidation)
	}
	start, end := civil(r.Start), civil(r.End)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range ends before it starts", domain.ErrValidation)
	}
	return start, end, nil
}

// civil drops the time of day and location, keeping the calendar date as
// observed in t's own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
