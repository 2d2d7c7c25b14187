package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/queue"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []uuid.UUID
	fail  bool
}

func (s *fakeStore) Recompute(_ context.Context, id uuid.UUID) (*models.EngagementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	if s.fail {
		return nil, errors.New("db down")
	}
	return &models.EngagementRow{ParticipantID: id, Total: 1}, nil
}

type fakeJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
}

func (j *fakeJobs) Dequeue(context.Context) (*queue.Job, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.pending) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	job := j.pending[0]
	j.pending = j.pending[1:]
	return job, nil
}

func (j *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.retried = append(j.retried, job)
	return nil
}

func TestProcessRecomputesParticipant(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(store, &fakeJobs{}, nil)
	id := uuid.New()
	job, err := queue.NewJob(queue.JobTypeAttendance, queue.EngagementPayload{ParticipantID: id, ActivityID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []uuid.UUID{id}, store.calls)
}

func TestProcessRejectsBadJobs(t *testing.T) {
	p := NewProcessor(&fakeStore{}, &fakeJobs{}, nil)

	unknown, _ := queue.NewJob("recording_upload", queue.EngagementPayload{ParticipantID: uuid.New()})
	assert.Error(t, p.Process(context.Background(), unknown))

	empty, _ := queue.NewJob(queue.JobTypeLike, queue.EngagementPayload{})
	assert.Error(t, p.Process(context.Background(), empty))
}

func TestRunRetriesFailedJobs(t *testing.T) {
	store := &fakeStore{fail: true}
	job, _ := queue.NewJob(queue.JobTypeFeedback, queue.EngagementPayload{ParticipantID: uuid.New()})
	jobs := &fakeJobs{pending: []*queue.Job{job}}
	p := NewProcessor(store, jobs, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		jobs.mu.Lock()
		defer jobs.mu.Unlock()
		return len(jobs.retried) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
