package voting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/models"
)

// fakeLikes enforces the cap server-side and counts requests.
type fakeLikes struct {
	used      int
	max       int
	preflight int
	likes     int
	unlikes   int
}

func (f *fakeLikes) CanLike(_ context.Context, _, _ uuid.UUID) (models.LikeAllowance, error) {
	f.preflight++
	return models.LikeAllowance{Allowed: f.used < f.max, Used: f.used, Max: f.max}, nil
}

func (f *fakeLikes) Like(_ context.Context, _ uuid.UUID) (int, error) {
	f.likes++
	f.used++
	return 1, nil
}

func (f *fakeLikes) Unlike(_ context.Context, _ uuid.UUID) (int, error) {
	f.unlikes++
	f.used--
	return 0, nil
}

func TestLikeGuard_FourthLikeRejectedWithoutRequest(t *testing.T) {
	fake := &fakeLikes{max: MaxLikesPerTalk}
	g := NewLikeGuard(fake, viewerSession(), uuid.New(), nil)

	for i := 0; i < MaxLikesPerTalk; i++ {
		_, err := g.Like(context.Background(), uuid.New())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, g.Used())
	preflight, likes := fake.preflight, fake.likes

	_, err := g.Like(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLikeLimitReached)
	assert.Equal(t, preflight, fake.preflight, "no pre-flight once the local count is spent")
	assert.Equal(t, likes, fake.likes)
}

func TestLikeGuard_PreflightRefusal(t *testing.T) {
	// Likes spent from another device: only the pre-flight knows.
	fake := &fakeLikes{used: 3, max: 3}
	g := NewLikeGuard(fake, viewerSession(), uuid.New(), nil)

	_, err := g.Like(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrLikeLimitReached)
	assert.Equal(t, 1, fake.preflight)
	assert.Zero(t, fake.likes)
	assert.Equal(t, 3, g.Used())
}

func TestLikeGuard_UnlikeFreesSlot(t *testing.T) {
	fake := &fakeLikes{used: 2, max: 3}
	g := NewLikeGuard(fake, viewerSession(), uuid.New(), nil)

	q := uuid.New()
	_, err := g.Like(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Used())

	_, err = g.Unlike(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Used())

	_, err = g.Like(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestLikeGuard_ConcurrentLikesStayUnderCap(t *testing.T) {
	fake := &fakeLikes{max: MaxLikesPerTalk}
	g := NewLikeGuard(fake, viewerSession(), uuid.New(), nil)

	var wg sync.WaitGroup
	var refused atomic.Int32
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Like(context.Background(), uuid.New()); err != nil {
				assert.ErrorIs(t, err, ErrLikeLimitReached)
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, MaxLikesPerTalk, fake.likes)
	assert.Equal(t, int32(3), refused.Load())
	assert.Equal(t, MaxLikesPerTalk, g.Used())
}
