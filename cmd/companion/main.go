// Command companion is the participant and organiser client for the event API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/semana-app/companion/config"
	"github.com/semana-app/companion/internal/api"
	"github.com/semana-app/companion/internal/notice"
	"github.com/semana-app/companion/internal/session"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, cfg, logger, os.Stdout)
	if err := a.root().execute(os.Args[1:], os.Stderr); err != nil {
		stop()
		a.fail(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}

// app carries what every command needs. The session is loaded once and passed explicitly.
type app struct {
	cfg    *config.ClientConfig
	logger *zap.Logger
	store  session.FileStore
	client *api.Client
	out    io.Writer
	ctx    context.Context
}

func newApp(ctx context.Context, cfg *config.ClientConfig, logger *zap.Logger, out io.Writer) *app {
	store := session.FileStore{Path: cfg.SessionFile}
	sess, err := store.Load()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		logger.Warn("ignoring unreadable session", zap.String("path", cfg.SessionFile), zap.Error(err))
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second}
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		client: api.New(cfg.APIURL, httpClient, sess, logger),
		out:    out,
		ctx:    ctx,
	}
}

// session returns the signed-in session or session.ErrNoSession.
func (a *app) session() (*session.Session, error) {
	s := a.client.Session()
	if !s.Valid() {
		return nil, session.ErrNoSession
	}
	return s, nil
}

// fail logs err and prints it as a notice box. Plain usage errors are printed as-is.
func (a *app) fail(w io.Writer, err error) {
	var usage usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(w, err)
		return
	}
	a.logger.Debug("command failed", zap.Error(err))
	fmt.Fprintln(w, notice.Render(notice.From(err)))
}

// usageError marks argument mistakes that need no notice box.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func newLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Encoding = "console"
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		config.Level = lvl
	}
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
