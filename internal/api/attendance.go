package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

// RegisterAttendance records that participantID is present at activityID.
func (c *Client) RegisterAttendance(ctx context.Context, participantID, activityID uuid.UUID) (*models.Attendance, error) {
	if participantID == uuid.Nil {
		return nil, validationError(OpRegisterAttendance, "participant required")
	}
	body := map[string]uuid.UUID{"participanteId": participantID, "palestraId": activityID}
	var out models.Attendance
	if err := c.do(ctx, OpRegisterAttendance, http.MethodPost, "/presenca", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Attendance lists a participant's check-ins.
func (c *Client) Attendance(ctx context.Context, participantID uuid.UUID) ([]models.Attendance, error) {
	var out []models.Attendance
	q := url.Values{"participanteId": {participantID.String()}}
	err := c.do(ctx, OpListAttendance, http.MethodGet, "/presenca", q, nil, &out)
	return out, err
}

// FeedbackInput is a rating for an activity.
type FeedbackInput struct {
	ActivityID uuid.UUID
	Rating     int
	Comment    string
}

// SubmitFeedback rates an activity. Rating must be within 1..5.
func (c *Client) SubmitFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, validationError(OpSubmitFeedback, "nota must be between 1 and 5")
	}
	body := map[string]interface{}{
		"palestraId": in.ActivityID,
		"nota":       in.Rating,
	}
	if id := c.session.ParticipantID(); id != uuid.Nil {
		body["participanteId"] = id
	}
	if comment := strings.TrimSpace(in.Comment); comment != "" {
		body["comentario"] = comment
	}
	var out models.Feedback
	if err := c.do(ctx, OpSubmitFeedback, http.MethodPost, "/feedback", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FeedbackByActivity lists the feedback of an activity.
func (c *Client) FeedbackByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Feedback, error) {
	var out []models.Feedback
	err := c.do(ctx, OpListFeedback, http.MethodGet, "/feedback/palestra/"+activityID.String(), nil, nil, &out)
	return out, err
}

// FeedbackByParticipant lists the feedback written by a participant.
func (c *Client) FeedbackByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Feedback, error) {
	var out []models.Feedback
	err := c.do(ctx, OpListFeedback, http.MethodGet, "/feedback/usuario/"+participantID.String(), nil, nil, &out)
	return out, err
}
