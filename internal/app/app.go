package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devdm/interview-platform/internal/auth/jwt"
	"github.com/devdm/interview-platform/internal/config"
	"github.com/devdm/interview-platform/internal/db/repository"
	"github.com/devdm/interview-platform/internal/interview"
	"github.com/devdm/interview-platform/internal/logging"
	"github.com/devdm/interview-platform/internal/question/ai"
	"github.com/devdm/interview-platform/internal/server"
	"github.com/devdm/interview-platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	timers *interview.TimerService
}

// New bootstraps configs, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	interviewRepo := repository.NewInterviewRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Timeout: cfg.AI.HTTPTimeout,
	}, logger)

	sessionStore := interview.NewSessionStore(redisClient, logger, interview.SessionStoreOptions{
		TTL:     cfg.Interview.SessionTTL,
		LockTTL: cfg.Interview.LockTTL,
	})
	timers := interview.NewTimerService(logger)
	hub := ws.NewHub(logger)

	interviewSvc := interview.NewService(
		sessionStore,
		timers,
		interviewRepo,
		questionRepo,
		aiClient,
		aiClient,
		hub,
		logger,
	)

	msgHandler := interview.NewHandler(interviewSvc, hub, logger)
	wsHandler := interview.NewWSHandler(msgHandler, tokens)
	httpHandler := interview.NewHTTPHandler(interviewSvc, tokens, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient,
		httpHandler.HandleCreate, httpHandler.HandleGet, wsHandler.HandleWebSocket)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		http:   apiServer,
		timers: timers,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.timers.Shutdown()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
