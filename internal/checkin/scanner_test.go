package checkin

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/api"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

type fakeRegistrar struct {
	mu    sync.Mutex
	calls []uuid.UUID
	errs  []error
	gate  chan struct{}
}

func (f *fakeRegistrar) RegisterAttendance(_ context.Context, participantID, activityID uuid.UUID) (*models.Attendance, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, activityID)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &models.Attendance{ID: uuid.New(), ParticipantID: participantID, ActivityID: activityID, RegisteredAt: time.Now()}, nil
}

func (f *fakeRegistrar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSurface struct {
	opened, closed int
}

func (s *fakeSurface) Open() error  { s.opened++; return nil }
func (s *fakeSurface) Close() error { s.closed++; return nil }

func signedIn() *session.Session {
	return &session.Session{Token: "t", Participant: models.Participant{ID: uuid.New()}}
}

func TestHandleDecode_SuccessClosesAndStaysDisabled(t *testing.T) {
	reg := &fakeRegistrar{}
	surface := &fakeSurface{}
	var hooked []models.Attendance
	sess := signedIn()
	s := NewScanner(reg, sess, surface, OnRegistered(func(a models.Attendance) { hooked = append(hooked, a) }))

	talk := uuid.New()
	att, err := s.HandleDecode(context.Background(), talk.String())
	require.NoError(t, err)
	assert.Equal(t, talk, att.ActivityID)
	assert.Equal(t, sess.ParticipantID(), att.ParticipantID)
	require.Len(t, hooked, 1)
	assert.Equal(t, 1, surface.closed)
	assert.True(t, s.Done())

	_, err = s.HandleDecode(context.Background(), talk.String())
	assert.ErrorIs(t, err, ErrScanIgnored)
	assert.Equal(t, 1, reg.count())
}

func TestHandleDecode_InvalidCodeReenables(t *testing.T) {
	reg := &fakeRegistrar{}
	surface := &fakeSurface{}
	var reported []error
	s := NewScanner(reg, signedIn(), surface, OnError(func(err error) { reported = append(reported, err) }))

	_, err := s.HandleDecode(context.Background(), "not a code")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Zero(t, reg.count())
	assert.Zero(t, surface.closed)
	require.Len(t, reported, 1)

	_, err = s.HandleDecode(context.Background(), uuid.NewString())
	assert.NoError(t, err)
}

func TestHandleDecode_BackendErrorReenables(t *testing.T) {
	dup := &api.Error{Kind: api.KindBusiness, Op: api.OpRegisterAttendance, Status: 409, Message: "already registered"}
	reg := &fakeRegistrar{errs: []error{dup}}
	s := NewScanner(reg, signedIn(), nil)

	_, err := s.HandleDecode(context.Background(), uuid.NewString())
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.False(t, s.Done())

	_, err = s.HandleDecode(context.Background(), uuid.NewString())
	assert.NoError(t, err)
	assert.Equal(t, 2, reg.count())
}

func TestHandleDecode_IgnoresFramesWhileInFlight(t *testing.T) {
	reg := &fakeRegistrar{gate: make(chan struct{})}
	s := NewScanner(reg, signedIn(), nil)
	code := uuid.NewString()

	first := make(chan error, 1)
	go func() {
		_, err := s.HandleDecode(context.Background(), code)
		first <- err
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.disabled
	}, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		_, err := s.HandleDecode(context.Background(), code)
		assert.ErrorIs(t, err, ErrScanIgnored)
	}
	close(reg.gate)
	require.NoError(t, <-first)
	assert.Equal(t, 1, reg.count())
}

func TestHandleDecode_RequiresSession(t *testing.T) {
	reg := &fakeRegistrar{}
	s := NewScanner(reg, nil, nil)
	_, err := s.HandleDecode(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Zero(t, reg.count())
}

func TestRun(t *testing.T) {
	t.Run("skips bad frames until a code registers", func(t *testing.T) {
		reg := &fakeRegistrar{}
		surface := &fakeSurface{}
		s := NewScanner(reg, signedIn(), surface)
		talk := uuid.New()

		att, err := s.Run(context.Background(), NewPayloads("lixo", "https://x?palestraId="+talk.String(), uuid.NewString()))
		require.NoError(t, err)
		assert.Equal(t, talk, att.ActivityID)
		assert.Equal(t, 1, surface.opened)
		assert.Equal(t, 1, surface.closed)
		assert.Equal(t, 1, reg.count())
	})

	t.Run("exhausted source returns the last failure", func(t *testing.T) {
		s := NewScanner(&fakeRegistrar{}, signedIn(), &fakeSurface{})
		_, err := s.Run(context.Background(), NewPayloads("lixo"))
		assert.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("empty source", func(t *testing.T) {
		surface := &fakeSurface{}
		s := NewScanner(&fakeRegistrar{}, signedIn(), surface)
		_, err := s.Run(context.Background(), NewPayloads())
		assert.ErrorIs(t, err, ErrNoCode)
		assert.Equal(t, 1, surface.closed)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := NewScanner(&fakeRegistrar{}, signedIn(), nil)
		_, err := s.Run(ctx, NewPayloads(uuid.NewString()))
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func writeQR(t *testing.T, dir, name, text string) string {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, matrix))
	return p
}

func TestImageSource(t *testing.T) {
	dir := t.TempDir()
	talk := uuid.New()
	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o600))
	good := writeQR(t, dir, "palestra.png", "https://semana.app/checkin?palestraId="+talk.String())

	src := NewImageSource(junk, good)
	text, err := src.Next(context.Background())
	require.NoError(t, err)
	got, err := ParseActivityID(text)
	require.NoError(t, err)
	assert.Equal(t, talk, got)

	_, err = src.Next(context.Background())
	assert.True(t, isEOF(err))
}

func TestRun_UnreadableImagesKeepCause(t *testing.T) {
	junk := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o600))
	reg := &fakeRegistrar{}
	s := NewScanner(reg, signedIn(), &fakeSurface{})

	_, err := s.Run(context.Background(), NewImageSource(junk))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCode)
	assert.Contains(t, err.Error(), "junk.png")
	assert.Zero(t, reg.count())
}

func TestRun_WithImages(t *testing.T) {
	dir := t.TempDir()
	talk := uuid.New()
	reg := &fakeRegistrar{}
	s := NewScanner(reg, signedIn(), &fakeSurface{})

	att, err := s.Run(context.Background(), NewImageSource(writeQR(t, dir, "qr.png", talk.String())))
	require.NoError(t, err)
	assert.Equal(t, talk, att.ActivityID)
}
