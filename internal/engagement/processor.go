package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/queue"
)

// Store recomputes counters; *Repository implements it.
type Store interface {
	Recompute(ctx context.Context, participantID uuid.UUID) (*models.EngagementRow, error)
}

// Jobs is the queue side the processor consumes; *queue.Queue implements it.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Processor consumes engagement jobs and refreshes the dashboard counters.
type Processor struct {
	store   Store
	jobs    Jobs
	backoff time.Duration
	logger  *zap.Logger
}

// NewProcessor creates an engagement processor.
func NewProcessor(store Store, jobs Jobs, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, jobs: jobs, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAttendance, queue.JobTypeFeedback, queue.JobTypeQuestion, queue.JobTypeLike:
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EngagementPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.ParticipantID == uuid.Nil {
		return fmt.Errorf("job %s has no participant", job.ID)
	}

	row, err := p.store.Recompute(ctx, payload.ParticipantID)
	if err != nil {
		return fmt.Errorf("recompute: %w", err)
	}
	p.logger.Debug("engagement recomputed",
		zap.String("participant_id", row.ParticipantID.String()),
		zap.String("trigger", string(job.Type)),
		zap.Int("total", row.Total))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Returns when ctx is done.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("engagement worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *Processor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
