// Package main runs the event companion HTTP API with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/semana-app/companion/config"
	"github.com/semana-app/companion/internal/activities"
	"github.com/semana-app/companion/internal/draw"
	"github.com/semana-app/companion/internal/feedback"
	"github.com/semana-app/companion/internal/middleware"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/participants"
	"github.com/semana-app/companion/internal/presence"
	"github.com/semana-app/companion/internal/questions"
	"github.com/semana-app/companion/internal/quizzes"
	"github.com/semana-app/companion/internal/realtime"
	"github.com/semana-app/companion/internal/token"
	"github.com/semana-app/companion/pkg/database"
	"github.com/semana-app/companion/pkg/queue"
	"github.com/semana-app/companion/pkg/redis"
	"github.com/semana-app/companion/pkg/response"
	"github.com/semana-app/companion/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Photo storage is optional; handlers answer 503 without it.
	var (
		photoStore    participants.PhotoStore
		photoUploader activities.PhotoUploader
	)
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PhotosBucket:         cfg.AWS.PhotosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			photoStore, photoUploader = s3Client, s3Client
		}
	}

	var metrics *middleware.Metrics
	if cfg.Server.MetricsEnabled {
		metrics = middleware.NewMetrics()
	}

	tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobs := queue.NewQueue(rdb.Client, logger)

	participantHandler := participants.NewHandler(participants.NewRepository(pool), tokens, photoStore, logger)

	scheduleCache := activities.NewRedisCache(rdb.Client, time.Duration(cfg.Event.ScheduleCacheMin)*time.Minute)
	activityHandler := activities.NewHandler(activities.NewRepository(pool), scheduleCache, photoUploader, logger)

	questionHandler := questions.NewHandler(questions.NewRepository(pool), hub, jobs, metrics, cfg.Event.MaxLikesPerTalk, logger)
	feedbackHandler := feedback.NewHandler(feedback.NewRepository(pool), jobs, metrics, logger)
	presenceHandler := presence.NewHandler(presence.NewRepository(pool), jobs, metrics, logger)
	quizHandler := quizzes.NewHandler(quizzes.NewRepository(pool), logger)
	drawHandler := draw.NewHandler(draw.NewRepository(pool), nil, logger)

	wsToken := func(tok string) (uuid.UUID, error) {
		claims, err := tokens.Validate(tok)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.ParticipantID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	if metrics != nil {
		router.Use(metrics.Handler())
		router.GET("/metrics", metrics.Endpoint())
	}

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", participantHandler.Login)
		authGroup.POST("/register", participantHandler.Register)
	}

	admin := middleware.RequireRole(models.RoleAdmin)

	api := router.Group("")
	api.Use(middleware.JWT(tokens))
	{
		// Participants
		api.GET("/participantes", admin, participantHandler.List)
		api.GET("/participantes/:id/perfil", participantHandler.GetProfile)
		api.PATCH("/participantes/:id/perfil", participantHandler.UpdateProfile)
		api.POST("/participantes/:id/foto", participantHandler.PhotoUploadURL)

		// Schedule
		api.GET("/programacao", activityHandler.List)
		api.GET("/programacao/:id", activityHandler.Get)
		api.POST("/programacao", admin, activityHandler.Create)
		api.DELETE("/programacao/:id", admin, activityHandler.Delete)
		api.POST("/programacao/:id/palestrantes/:idx/foto", admin, activityHandler.UploadSpeakerPhoto)

		// Questions, votes and likes
		api.GET("/perguntas/palestra/:id", questionHandler.ListByActivity)
		api.GET("/perguntas/palestra/:id/curtidas/pode-curtir", questionHandler.CanLike)
		api.POST("/perguntas", questionHandler.Create)
		api.POST("/perguntas/:id/votar", questionHandler.Vote)
		api.POST("/perguntas/:id/remover-voto", questionHandler.Unvote)
		api.POST("/perguntas/:id/curtir", questionHandler.Like)
		api.POST("/perguntas/:id/descurtir", questionHandler.Unlike)
		api.PATCH("/perguntas/:id/responder", admin, questionHandler.Answer)
		api.PATCH("/perguntas/:id/status", admin, questionHandler.SetStatus)

		// Attendance and feedback
		api.POST("/presenca", presenceHandler.Register)
		api.GET("/presenca", presenceHandler.List)
		api.GET("/presenca/palestra/:id/total", admin, presenceHandler.Count)
		api.POST("/feedback", feedbackHandler.Create)
		api.GET("/feedback/palestra/:id", feedbackHandler.ListByActivity)
		api.GET("/feedback/usuario/:id", feedbackHandler.ListByParticipant)

		// Quizzes
		api.GET("/quizzes/liberados", quizHandler.ListReleased)
		api.GET("/quizzes/:id", quizHandler.Get)
		api.POST("/quizzes", admin, quizHandler.Create)
		api.POST("/quizzes/:id/liberar", admin, quizHandler.Release)
		api.POST("/quizzes/responder/:id", quizHandler.Answer)

		// Engagement dashboard and prize drawing
		api.POST("/sorteio/usuarios/all", admin, drawHandler.List)
		api.POST("/sorteio/sortear", admin, drawHandler.Draw)
		api.GET("/palestras/:id/audiencia", func(c *gin.Context) {
			id, err := uuid.Parse(c.Param("id"))
			if err != nil {
				response.BadRequest(c, "invalid activity id")
				return
			}
			response.OK(c, gin.H{"palestraId": id, "audiencia": hub.AudienceCount(id)})
		})
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, wsToken))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
