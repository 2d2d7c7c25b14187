package draw

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"sort"

	"github.com/semana-app/companion/internal/models"
)

// ErrNoCandidates is returned when the filter leaves nobody to draw.
var ErrNoCandidates = errors.New("no eligible participants")

// Apply drops rows below the filter minimums and sorts the rest.
// Unknown sort keys fall back to total; ties keep their input order.
func Apply(rows []models.EngagementRow, f models.DrawFilter) []models.EngagementRow {
	out := make([]models.EngagementRow, 0, len(rows))
	for _, r := range rows {
		if r.Attendance < f.MinAttendance || r.Feedback < f.MinFeedback || r.Questions < f.MinQuestions {
			continue
		}
		out = append(out, r)
	}

	key := func(r models.EngagementRow) int { return r.Total }
	switch f.SortBy {
	case models.SortByAttendance:
		key = func(r models.EngagementRow) int { return r.Attendance }
	case models.SortByFeedback:
		key = func(r models.EngagementRow) int { return r.Feedback }
	case models.SortByQuestions:
		key = func(r models.EngagementRow) int { return r.Questions }
	}
	asc := f.Order == "asc"
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return key(out[i]) < key(out[j])
		}
		return key(out[i]) > key(out[j])
	})
	return out
}

// Pick chooses one row uniformly using src, or crypto/rand when src is nil.
func Pick(rows []models.EngagementRow, src io.Reader) (models.DrawResult, error) {
	if len(rows) == 0 {
		return models.DrawResult{}, ErrNoCandidates
	}
	if src == nil {
		src = rand.Reader
	}
	n, err := rand.Int(src, big.NewInt(int64(len(rows))))
	if err != nil {
		return models.DrawResult{}, err
	}
	return models.DrawResult{Winner: rows[n.Int64()], Candidates: len(rows)}, nil
}
