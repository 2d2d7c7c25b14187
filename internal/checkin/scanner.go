package checkin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

var (
	// ErrScanIgnored is returned for decodes that arrive while a previous one is being handled.
	ErrScanIgnored = errors.New("scan ignored")
	// ErrNoCode is returned by Run when the frame source ran out without a successful registration.
	ErrNoCode = errors.New("no attendance code registered")
)

// Registrar records attendance. *api.Client satisfies it.
type Registrar interface {
	RegisterAttendance(ctx context.Context, participantID, activityID uuid.UUID) (*models.Attendance, error)
}

// Surface is the scanning view (camera preview or its stand-in).
type Surface interface {
	Open() error
	Close() error
}

// FrameSource yields decoded payloads. Next returns io.EOF when exhausted.
type FrameSource interface {
	Next(ctx context.Context) (string, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OnRegistered is called once after a successful registration, before the surface closes.
func OnRegistered(fn func(models.Attendance)) Option {
	return func(s *Scanner) { s.onRegistered = fn }
}

// OnError is called for every decode that fails to parse or register.
func OnError(fn func(error)) Option {
	return func(s *Scanner) { s.onError = fn }
}

// Scanner accepts decoded payloads and registers the first valid one.
// Handling is switched off by a flag while a payload is processed, so
// repeated frames of the same code never produce duplicate submissions.
type Scanner struct {
	registrar Registrar
	sess      *session.Session
	surface   Surface
	logger    *zap.Logger

	onRegistered func(models.Attendance)
	onError      func(error)

	mu       sync.Mutex
	disabled bool
	done     bool
}

// NewScanner creates a scanner for the signed-in participant.
func NewScanner(registrar Registrar, sess *session.Session, surface Surface, opts ...Option) *Scanner {
	s := &Scanner{
		registrar: registrar,
		sess:      sess,
		surface:   surface,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Done reports whether a registration succeeded and the surface was closed.
func (s *Scanner) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Scanner) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return false
	}
	s.disabled = true
	return true
}

func (s *Scanner) release() {
	s.mu.Lock()
	s.disabled = false
	s.mu.Unlock()
}

// HandleDecode processes one decoded payload.
func (s *Scanner) HandleDecode(ctx context.Context, payload string) (*models.Attendance, error) {
	if !s.acquire() {
		return nil, ErrScanIgnored
	}

	att, err := s.register(ctx, payload)
	if err != nil {
		s.logger.Info("check-in failed", zap.Error(err))
		if s.onError != nil {
			s.onError(err)
		}
		s.release()
		return nil, err
	}

	s.logger.Info("attendance registered",
		zap.String("activity_id", att.ActivityID.String()),
		zap.String("participant_id", att.ParticipantID.String()),
	)
	if s.onRegistered != nil {
		s.onRegistered(*att)
	}
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	if s.surface != nil {
		if err := s.surface.Close(); err != nil {
			s.logger.Warn("close scan surface", zap.Error(err))
		}
	}
	return att, nil
}

func (s *Scanner) register(ctx context.Context, payload string) (*models.Attendance, error) {
	pid := s.sess.ParticipantID()
	if pid == uuid.Nil {
		return nil, session.ErrNoSession
	}
	activityID, err := ParseActivityID(payload)
	if err != nil {
		return nil, err
	}
	att, err := s.registrar.RegisterAttendance(ctx, pid, activityID)
	if err != nil {
		return nil, fmt.Errorf("register attendance: %w", err)
	}
	return att, nil
}

// Run opens the surface and feeds frames to HandleDecode until one registers,
// the source is exhausted or ctx is done. Per-frame failures are reported
// through OnError and scanning continues.
func (s *Scanner) Run(ctx context.Context, src FrameSource) (*models.Attendance, error) {
	if s.surface != nil {
		if err := s.surface.Open(); err != nil {
			return nil, fmt.Errorf("open scan surface: %w", err)
		}
	}
	var last error
	for {
		if err := ctx.Err(); err != nil {
			s.closeSurface()
			return nil, err
		}
		payload, err := src.Next(ctx)
		if err != nil {
			s.closeSurface()
			if isEOF(err) {
				if last != nil {
					return nil, last
				}
				if err != io.EOF {
					s.logger.Info("no readable code", zap.Error(err))
					return nil, errors.Join(ErrNoCode, err)
				}
				return nil, ErrNoCode
			}
			return nil, err
		}
		att, err := s.HandleDecode(ctx, payload)
		if err == nil {
			return att, nil
		}
		if !errors.Is(err, ErrScanIgnored) {
			last = err
		}
	}
}

func (s *Scanner) closeSurface() {
	if s.surface == nil || s.Done() {
		return
	}
	if err := s.surface.Close(); err != nil {
		s.logger.Warn("close scan surface", zap.Error(err))
	}
}

// Payloads is a FrameSource over already-decoded payloads.
type Payloads struct {
	items []string
}

// NewPayloads creates a source that yields items in order.
func NewPayloads(items ...string) *Payloads {
	return &Payloads{items: items}
}

// Next returns the next payload, or io.EOF.
func (p *Payloads) Next(_ context.Context) (string, error) {
	if len(p.items) == 0 {
		return "", io.EOF
	}
	item := p.items[0]
	p.items = p.items[1:]
	return item, nil
}
