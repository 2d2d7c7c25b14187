package voting

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/api"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

// fakeAPI serves a server-side question list and records calls.
type fakeAPI struct {
	server  []models.Question
	voteErr error
	listErr error
	calls   []string
	created []string
}

func (f *fakeAPI) Questions(_ context.Context, _ uuid.UUID) ([]models.Question, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Question, len(f.server))
	for i, q := range f.server {
		q.Voters = append([]uuid.UUID(nil), q.Voters...)
		out[i] = q
	}
	return out, nil
}

func (f *fakeAPI) CreateQuestion(_ context.Context, talkID uuid.UUID, title, _ string) (*models.Question, error) {
	f.calls = append(f.calls, "create")
	f.created = append(f.created, title)
	q := models.Question{ID: uuid.New(), ActivityID: talkID, Title: title}
	f.server = append(f.server, q)
	return &q, nil
}

func (f *fakeAPI) Vote(_ context.Context, _ uuid.UUID) (int, error) {
	f.calls = append(f.calls, "vote")
	return 0, f.voteErr
}

func (f *fakeAPI) Unvote(_ context.Context, _ uuid.UUID) (int, error) {
	f.calls = append(f.calls, "unvote")
	return 0, f.voteErr
}

func viewerSession() *session.Session {
	return &session.Session{Token: "t", Participant: models.Participant{ID: uuid.New()}}
}

func seed(author uuid.UUID) []models.Question {
	other := uuid.New()
	return []models.Question{
		{ID: uuid.New(), Title: "A", AuthorID: other, Votes: 2, Voters: []uuid.UUID{uuid.New(), uuid.New()}},
		{ID: uuid.New(), Title: "B", AuthorID: other, Votes: 1, Voters: []uuid.UUID{uuid.New()}},
		{ID: uuid.New(), Title: "C", AuthorID: other, Votes: 1, Voters: []uuid.UUID{uuid.New()}},
		{ID: uuid.New(), Title: "Mine", AuthorID: author},
	}
}

func titles(qs []models.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Title
	}
	return out
}

func find(t *testing.T, qs []models.Question, id uuid.UUID) models.Question {
	t.Helper()
	for _, q := range qs {
		if q.ID == id {
			return q
		}
	}
	t.Fatalf("question %s not found", id)
	return models.Question{}
}

func TestLoad_SortsStableByVotes(t *testing.T) {
	sess := viewerSession()
	qs := seed(sess.ParticipantID())
	fake := &fakeAPI{server: []models.Question{qs[3], qs[1], qs[0], qs[2]}}
	b := NewBoard(fake, sess, uuid.New(), nil)

	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, []string{"A", "B", "C", "Mine"}, titles(b.Questions()))
}

func TestToggle_VoteThenUnvote(t *testing.T) {
	sess := viewerSession()
	viewer := sess.ParticipantID()
	fake := &fakeAPI{server: seed(viewer)}
	b := NewBoard(fake, sess, uuid.New(), nil)
	require.NoError(t, b.Load(context.Background()))

	target := b.Questions()[2] // "C", 1 vote
	require.NoError(t, b.Toggle(context.Background(), target.ID))

	after := find(t, b.Questions(), target.ID)
	assert.Equal(t, target.Votes+1, after.Votes)
	assert.True(t, after.HasVoter(viewer))
	assert.Equal(t, []string{"A", "C", "B", "Mine"}, titles(b.Questions()), "re-ranked immediately")

	require.NoError(t, b.Toggle(context.Background(), target.ID))
	back := find(t, b.Questions(), target.ID)
	assert.Equal(t, target.Votes, back.Votes)
	assert.False(t, back.HasVoter(viewer))

	assert.Equal(t, []string{"list", "vote", "unvote"}, fake.calls)
}

func TestToggle_FailureRefetches(t *testing.T) {
	sess := viewerSession()
	fake := &fakeAPI{server: seed(sess.ParticipantID())}
	b := NewBoard(fake, sess, uuid.New(), nil)
	require.NoError(t, b.Load(context.Background()))

	cause := &api.Error{Kind: api.KindBusiness, Op: api.OpVote, Status: 409, Message: "already voted"}
	fake.voteErr = cause
	target := b.Questions()[1]

	err := b.Toggle(context.Background(), target.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVoteRejected)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.KindBusiness, apiErr.Kind)

	fresh, listErr := fake.Questions(context.Background(), b.TalkID())
	require.NoError(t, listErr)
	rank(fresh)
	assert.Equal(t, fresh, b.Questions())
	assert.Equal(t, []string{"list", "vote", "list", "list"}, fake.calls)
}

func TestToggle_FailedRefetchClearsBoard(t *testing.T) {
	sess := viewerSession()
	fake := &fakeAPI{server: seed(sess.ParticipantID())}
	b := NewBoard(fake, sess, uuid.New(), nil)
	require.NoError(t, b.Load(context.Background()))

	network := &api.Error{Kind: api.KindNetwork, Op: api.OpVote, Message: "could not reach server"}
	fake.voteErr = network
	fake.listErr = &api.Error{Kind: api.KindNetwork, Op: api.OpListQuestions, Message: "could not reach server"}

	err := b.Toggle(context.Background(), b.Questions()[0].ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVoteRejected)
	assert.ErrorIs(t, err, fake.listErr)
	assert.Empty(t, b.Questions())
}

func TestToggle_Guards(t *testing.T) {
	sess := viewerSession()
	fake := &fakeAPI{server: seed(sess.ParticipantID())}
	b := NewBoard(fake, sess, uuid.New(), nil)
	require.NoError(t, b.Load(context.Background()))

	mine := find(t, b.Questions(), fake.server[3].ID)
	assert.False(t, b.CanVote(mine))
	assert.True(t, b.CanVote(b.Questions()[0]))

	assert.ErrorIs(t, b.Toggle(context.Background(), mine.ID), ErrOwnQuestion)
	assert.ErrorIs(t, b.Toggle(context.Background(), uuid.New()), ErrQuestionNotFound)

	anon := NewBoard(fake, nil, uuid.New(), nil)
	assert.True(t, errors.Is(anon.Toggle(context.Background(), mine.ID), session.ErrNoSession))

	assert.Equal(t, []string{"list"}, fake.calls, "no vote request issued")
}

func TestSubmit(t *testing.T) {
	sess := viewerSession()
	fake := &fakeAPI{}
	b := NewBoard(fake, sess, uuid.New(), nil)

	_, err := b.Submit(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, fake.calls)

	q, err := b.Submit(context.Background(), "Como testar?", "")
	require.NoError(t, err)
	assert.Equal(t, "Como testar?", q.Title)
	assert.Equal(t, []string{"create", "list"}, fake.calls)
	assert.Len(t, b.Questions(), 1)
}
