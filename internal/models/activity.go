package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TimeRange is one start/end slot of a schedule entry.
type TimeRange struct {
	Start time.Time `json:"inicio"`
	End   time.Time `json:"fim"`
}

// Layouts accepted for "inicio"/"fim", most precise first. The admin form posts minutes without an offset.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// UnmarshalJSON reads both ends leniently: an empty or unrecognised value becomes the zero time
// instead of failing the surrounding list.
func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start json.RawMessage `json:"inicio"`
		End   json.RawMessage `json:"fim"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Start = parseLenient(raw.Start)
	r.End = parseLenient(raw.End)
	return nil
}

func parseLenient(data json.RawMessage) time.Time {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Speaker is a person presenting an activity.
type Speaker struct {
	Name     string `json:"nome"`
	Bio      string `json:"bio,omitempty"`
	PhotoURL string `json:"fotoUrl,omitempty"`
}

// Activity is a schedule entry ("programação"): talk, workshop, panel, etc.
type Activity struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"titulo"`
	Type        string      `json:"tipo"`
	Location    string      `json:"local"`
	Description string      `json:"descricao"`
	TimeRanges  []TimeRange `json:"horarios"`
	Speakers    []Speaker   `json:"palestrantes"`
	QuizID      *uuid.UUID  `json:"quizId,omitempty"`
	CreatedAt   time.Time   `json:"criadoEm"`
}

// FirstStart returns the start of the first time range, and false when the activity has none.
func (a Activity) FirstStart() (time.Time, bool) {
	if len(a.TimeRanges) == 0 || a.TimeRanges[0].Start.IsZero() {
		return time.Time{}, false
	}
	return a.TimeRanges[0].Start, true
}
