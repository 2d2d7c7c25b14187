package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/models"
)

var brt = time.FixedZone("BRT", -3*60*60)

func activity(title, tipo string, starts ...time.Time) models.Activity {
	a := models.Activity{ID: uuid.New(), Title: title, Type: tipo}
	for _, s := range starts {
		a.TimeRanges = append(a.TimeRanges, models.TimeRange{Start: s, End: s.Add(time.Hour)})
	}
	return a
}

func at(day, hour int) time.Time {
	return time.Date(2025, time.December, day, hour, 0, 0, 0, brt)
}

func fixture() []models.Activity {
	return []models.Activity{
		activity("Abertura", "Palestra", at(15, 19)),
		activity("Go na prática", "Minicurso", at(12, 19)),
		activity("Sem horário", "Palestra"),
		activity("Painel", "Painel", at(13, 19)),
		activity("Encerramento", "Palestra", at(12, 21), at(13, 9)),
	}
}

func TestExtractUniqueDates(t *testing.T) {
	dates := ExtractUniqueDates(fixture())
	assert.Equal(t, []string{"2025-12-12", "2025-12-13", "2025-12-15"}, dates)

	for i := 1; i < len(dates); i++ {
		assert.Less(t, dates[i-1], dates[i])
	}
	assert.Empty(t, ExtractUniqueDates(nil))
}

func TestExtractUniqueDates_UsesSentOffset(t *testing.T) {
	// 22:30 in Brasília is already the next day in UTC.
	late := activity("Happy hour", "Social", time.Date(2025, time.December, 12, 22, 30, 0, 0, brt))
	assert.Equal(t, []string{"2025-12-12"}, ExtractUniqueDates([]models.Activity{late}))
}

func TestExtractUniqueDates_DecodedMixedFormats(t *testing.T) {
	payload := `[
		{"titulo": "Abertura", "horarios": [{"inicio": "2025-12-13T19:00", "fim": ""}]},
		{"titulo": "Oficina", "horarios": [{"inicio": "2025-12-14T09:30:00-03:00", "fim": "2025-12-14T11:00:00-03:00"}]},
		{"titulo": "Quebrada", "horarios": [{"inicio": "??", "fim": "??"}]}
	]`
	var list []models.Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &list))

	dates := ExtractUniqueDates(list)
	assert.Equal(t, []string{"2025-12-13", "2025-12-14"}, dates)
	assert.Len(t, FilterByDay(list, "Dia 1", dates), 1)
	assert.Len(t, FilterByDay(list, All, dates), 3)
}

func TestFilterByDay(t *testing.T) {
	acts := fixture()
	dates := ExtractUniqueDates(acts)

	day2 := FilterByDay(acts, "Dia 2", dates)
	require.Len(t, day2, 1)
	assert.Equal(t, "Painel", day2[0].Title)

	day1 := FilterByDay(acts, "Dia 1", dates)
	require.Len(t, day1, 2)
	assert.Equal(t, "Go na prática", day1[0].Title)
	assert.Equal(t, "Encerramento", day1[1].Title)

	tests := []struct {
		name  string
		label string
	}{
		{"all sentinel", All},
		{"out of range", "Dia 4"},
		{"zero", "Dia 0"},
		{"garbage", "amanhã"},
		{"not a number", "Dia dois"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, acts, FilterByDay(acts, tt.label, dates))
		})
	}
}

func TestFilterByType(t *testing.T) {
	acts := fixture()
	assert.Equal(t, acts, FilterByType(acts, All))

	talks := FilterByType(acts, "Palestra")
	require.Len(t, talks, 3)
	for _, a := range talks {
		assert.Equal(t, "Palestra", a.Type)
	}
	assert.Empty(t, FilterByType(acts, "palestra"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "12/12/2025", FormatDate("2025-12-12"))
	assert.Equal(t, "05/01/2026", FormatDate("2026-01-05"))
	assert.Equal(t, "12-12-2025", FormatDate("12-12-2025"))
	assert.Equal(t, "", FormatDate(""))
}

func TestMenus(t *testing.T) {
	acts := fixture()
	assert.Equal(t, []string{All, "Dia 1", "Dia 2", "Dia 3"}, DayLabels(ExtractUniqueDates(acts)))
	assert.Equal(t, []string{"Minicurso", "Painel", "Palestra"}, DistinctTypes(acts))
}

func TestSortByStart(t *testing.T) {
	acts := fixture()
	sorted := SortByStart(acts)

	titles := make([]string, len(sorted))
	for i, a := range sorted {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"Go na prática", "Encerramento", "Painel", "Abertura", "Sem horário"}, titles)
	assert.Equal(t, "Abertura", acts[0].Title, "input must not be reordered")
}
