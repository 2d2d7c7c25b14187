// Package schedule derives the day and type views of the event schedule.
// Every function is pure and total: malformed time data excludes an
// activity from date extraction instead of failing.
package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/semana-app/companion/internal/models"
)

// All is the filter sentinel that selects every day or every type.
const All = "Todos"

const (
	isoDate     = "2006-01-02"
	displayDate = "02/01/2006"
	dayPrefix   = "Dia "
)

// dateOf returns the ISO date of the first range start, in the offset the backend sent.
func dateOf(a models.Activity) (string, bool) {
	start, ok := a.FirstStart()
	if !ok {
		return "", false
	}
	return start.Format(isoDate), true
}

// ExtractUniqueDates returns the ascending, duplicate-free ISO dates of every activity with a time range.
func ExtractUniqueDates(activities []models.Activity) []string {
	seen := make(map[string]struct{}, len(activities))
	dates := make([]string, 0, len(activities))
	for _, a := range activities {
		d, ok := dateOf(a)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// dayIndex parses "Dia N" into a zero-based index.
func dayIndex(label string) (int, bool) {
	if !strings.HasPrefix(label, dayPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(label, dayPrefix)))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// FilterByDay keeps the activities that start on the Nth unique date of a "Dia N" label.
// All, an unparsable label or an out-of-range N return the input unchanged.
func FilterByDay(activities []models.Activity, dayLabel string, uniqueDates []string) []models.Activity {
	if dayLabel == All {
		return activities
	}
	idx, ok := dayIndex(dayLabel)
	if !ok || idx >= len(uniqueDates) {
		return activities
	}
	want := uniqueDates[idx]
	out := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if d, ok := dateOf(a); ok && d == want {
			out = append(out, a)
		}
	}
	return out
}

// FilterByType keeps the activities whose tipo equals tipo exactly.
func FilterByType(activities []models.Activity, tipo string) []models.Activity {
	if tipo == All {
		return activities
	}
	out := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if a.Type == tipo {
			out = append(out, a)
		}
	}
	return out
}

// FormatDate renders an ISO date as dd/mm/yyyy. Anything else is returned as given.
func FormatDate(iso string) string {
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return iso
	}
	return t.Format(displayDate)
}

// DayLabels builds the day menu: All followed by "Dia 1".."Dia N".
func DayLabels(uniqueDates []string) []string {
	labels := make([]string, 0, len(uniqueDates)+1)
	labels = append(labels, All)
	for i := range uniqueDates {
		labels = append(labels, dayPrefix+strconv.Itoa(i+1))
	}
	return labels
}

// DistinctTypes returns the sorted set of non-empty activity types.
func DistinctTypes(activities []models.Activity) []string {
	seen := make(map[string]struct{})
	var types []string
	for _, a := range activities {
		if a.Type == "" {
			continue
		}
		if _, dup := seen[a.Type]; dup {
			continue
		}
		seen[a.Type] = struct{}{}
		types = append(types, a.Type)
	}
	sort.Strings(types)
	return types
}

// SortByStart returns a copy ordered by first start. Activities without a range go last, in input order.
func SortByStart(activities []models.Activity) []models.Activity {
	out := make([]models.Activity, len(activities))
	copy(out, activities)
	sort.SliceStable(out, func(i, j int) bool {
		si, okI := out[i].FirstStart()
		sj, okJ := out[j].FirstStart()
		switch {
		case okI && okJ:
			return si.Before(sj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}
