package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeLenientDecode(t *testing.T) {
	payload := `[
		{"titulo": "Abertura", "horarios": [{"inicio": "2025-12-13T19:00", "fim": ""}]},
		{"titulo": "Oficina", "horarios": [{"inicio": "2025-12-14T09:30:00-03:00", "fim": "2025-12-14T11:00:00-03:00"}]},
		{"titulo": "Mesa", "horarios": [{"inicio": "2025-12-15T10:00:00", "fim": "2025-12-15T11:00:00"}]},
		{"titulo": "Quebrada", "horarios": [{"inicio": "amanhã", "fim": null}]}
	]`

	var list []Activity
	require.NoError(t, json.Unmarshal([]byte(payload), &list))
	require.Len(t, list, 4)

	start, ok := list[0].FirstStart()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.December, 13, 19, 0, 0, 0, time.UTC), start)
	assert.True(t, list[0].TimeRanges[0].End.IsZero())

	start, ok = list[1].FirstStart()
	require.True(t, ok)
	assert.Equal(t, "2025-12-14 09:30 -0300", start.Format("2006-01-02 15:04 -0700"))
	assert.Equal(t, 90*time.Minute, list[1].TimeRanges[0].End.Sub(start))

	start, ok = list[2].FirstStart()
	require.True(t, ok)
	assert.Equal(t, 15, start.Day())

	_, ok = list[3].FirstStart()
	assert.False(t, ok, "garbage start counts as no time range")
}

func TestTimeRangeRejectsNonObject(t *testing.T) {
	var r TimeRange
	assert.Error(t, json.Unmarshal([]byte(`"2025-12-13T19:00"`), &r))
}
