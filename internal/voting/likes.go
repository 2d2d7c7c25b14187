package voting

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

// MaxLikesPerTalk is the number of questions a participant may like on one talk.
const MaxLikesPerTalk = 3

// ErrLikeLimitReached is returned before any like request once the cap is used up.
var ErrLikeLimitReached = errors.New("like limit reached for this talk")

// LikeAPI is the slice of the REST client the like guard needs.
type LikeAPI interface {
	CanLike(ctx context.Context, talkID, participantID uuid.UUID) (models.LikeAllowance, error)
	Like(ctx context.Context, questionID uuid.UUID) (int, error)
	Unlike(ctx context.Context, questionID uuid.UUID) (int, error)
}

// LikeGuard checks the per-talk like cap before acting. It is safe for
// concurrent use; calls are serialised so the cap check and the request
// it guards cannot interleave.
type LikeGuard struct {
	api    LikeAPI
	sess   *session.Session
	talkID uuid.UUID
	logger *zap.Logger

	mu   sync.Mutex
	used int
	max  int
}

// NewLikeGuard creates a guard for one talk.
func NewLikeGuard(api LikeAPI, sess *session.Session, talkID uuid.UUID, logger *zap.Logger) *LikeGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LikeGuard{
		api:    api,
		sess:   sess,
		talkID: talkID,
		logger: logger,
		max:    MaxLikesPerTalk,
	}
}

// Used is the last known number of likes spent on the talk.
func (g *LikeGuard) Used() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

// Like likes questionID and returns its like count.
// A spent cap, known locally or reported by the pre-flight check, yields
// ErrLikeLimitReached without a like request.
func (g *LikeGuard) Like(ctx context.Context, questionID uuid.UUID) (int, error) {
	pid := g.sess.ParticipantID()
	if pid == uuid.Nil {
		return 0, session.ErrNoSession
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.used >= g.max {
		return 0, ErrLikeLimitReached
	}

	allowance, err := g.api.CanLike(ctx, g.talkID, pid)
	if err != nil {
		return 0, err
	}
	g.used = allowance.Used
	if allowance.Max > 0 {
		g.max = allowance.Max
	}
	if !allowance.Allowed {
		g.logger.Info("like refused by pre-flight",
			zap.String("talk_id", g.talkID.String()),
			zap.Int("used", allowance.Used),
		)
		return 0, ErrLikeLimitReached
	}

	n, err := g.api.Like(ctx, questionID)
	if err != nil {
		return 0, err
	}
	g.used++
	return n, nil
}

// Unlike removes a like and frees one slot.
func (g *LikeGuard) Unlike(ctx context.Context, questionID uuid.UUID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.api.Unlike(ctx, questionID)
	if err != nil {
		return 0, err
	}
	if g.used > 0 {
		g.used--
	}
	return n, nil
}
