// Package voting keeps a talk's question board for one viewer and applies
// vote toggles optimistically, resynchronising from the backend when a
// request is rejected.
package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

var (
	ErrOwnQuestion      = errors.New("cannot vote on own question")
	ErrQuestionNotFound = errors.New("question not on this board")
	// ErrVoteRejected wraps the cause of a failed toggle; the board has been refetched.
	ErrVoteRejected = errors.New("vote rejected")
	ErrEmptyTitle   = errors.New("question title is empty")
)

// QuestionAPI is the slice of the REST client the board needs.
type QuestionAPI interface {
	Questions(ctx context.Context, talkID uuid.UUID) ([]models.Question, error)
	CreateQuestion(ctx context.Context, talkID uuid.UUID, title, description string) (*models.Question, error)
	Vote(ctx context.Context, questionID uuid.UUID) (int, error)
	Unvote(ctx context.Context, questionID uuid.UUID) (int, error)
}

// Board is the question list of one talk as seen by the session's participant.
type Board struct {
	api    QuestionAPI
	sess   *session.Session
	talkID uuid.UUID
	logger *zap.Logger

	mu        sync.Mutex
	questions []models.Question
}

// NewBoard creates an empty board. Call Load to fetch it.
func NewBoard(api QuestionAPI, sess *session.Session, talkID uuid.UUID, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{api: api, sess: sess, talkID: talkID, logger: logger}
}

// TalkID returns the talk this board belongs to.
func (b *Board) TalkID() uuid.UUID { return b.talkID }

// Load replaces the board with the backend's list, most voted first.
func (b *Board) Load(ctx context.Context) error {
	qs, err := b.api.Questions(ctx, b.talkID)
	if err != nil {
		return err
	}
	rank(qs)
	b.mu.Lock()
	b.questions = qs
	b.mu.Unlock()
	return nil
}

// Questions returns a copy of the current list.
func (b *Board) Questions() []models.Question {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Question, len(b.questions))
	for i, q := range b.questions {
		q.Voters = append([]uuid.UUID(nil), q.Voters...)
		out[i] = q
	}
	return out
}

// CanVote is false for the question's author; the vote control is not offered there.
func (b *Board) CanVote(q models.Question) bool {
	viewer := b.sess.ParticipantID()
	return viewer != uuid.Nil && q.AuthorID != viewer
}

// Toggle votes or unvotes questionID depending on whether the viewer already voted.
// The board changes before the request is sent. If the request fails, the
// optimistic state is dropped, the board is refetched and the returned error
// wraps ErrVoteRejected and the cause.
func (b *Board) Toggle(ctx context.Context, questionID uuid.UUID) error {
	viewer := b.sess.ParticipantID()
	if viewer == uuid.Nil {
		return session.ErrNoSession
	}

	b.mu.Lock()
	idx := b.indexOf(questionID)
	if idx < 0 {
		b.mu.Unlock()
		return ErrQuestionNotFound
	}
	q := &b.questions[idx]
	if q.AuthorID == viewer {
		b.mu.Unlock()
		return ErrOwnQuestion
	}
	voted := q.HasVoter(viewer)
	if voted {
		q.Votes--
		q.Voters = without(q.Voters, viewer)
	} else {
		q.Votes++
		q.Voters = append(q.Voters, viewer)
	}
	rank(b.questions)
	b.mu.Unlock()

	var err error
	if voted {
		_, err = b.api.Unvote(ctx, questionID)
	} else {
		_, err = b.api.Vote(ctx, questionID)
	}
	if err == nil {
		return nil
	}

	b.logger.Warn("vote toggle failed, refetching board",
		zap.String("question_id", questionID.String()),
		zap.Bool("was_voted", voted),
		zap.Error(err),
	)
	rejected := fmt.Errorf("%w: %w", ErrVoteRejected, err)
	if loadErr := b.Load(ctx); loadErr != nil {
		b.mu.Lock()
		b.questions = nil
		b.mu.Unlock()
		return errors.Join(rejected, fmt.Errorf("refetch questions: %w", loadErr))
	}
	return rejected
}

// Submit asks a new question on the talk and reloads the board.
func (b *Board) Submit(ctx context.Context, title, description string) (*models.Question, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	q, err := b.api.CreateQuestion(ctx, b.talkID, title, description)
	if err != nil {
		return nil, err
	}
	if err := b.Load(ctx); err != nil {
		return q, fmt.Errorf("reload questions: %w", err)
	}
	return q, nil
}

func (b *Board) indexOf(id uuid.UUID) int {
	for i := range b.questions {
		if b.questions[i].ID == id {
			return i
		}
	}
	return -1
}

// rank orders by votes, descending, keeping the relative order of ties.
func rank(qs []models.Question) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Votes > qs[j].Votes })
}

func without(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
