package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medimatch/medimatch/internal/config"
	"github.com/medimatch/medimatch/internal/server"
	"github.com/medimatch/medimatch/pkg/cache"
	"github.com/medimatch/medimatch/pkg/client"
	"github.com/medimatch/medimatch/pkg/logging"
	"github.com/medimatch/medimatch/pkg/medicine"
	"github.com/medimatch/medimatch/pkg/ratelimit"
)

func main() {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Logging.Level),
		Pretty:  cfg.Logging.Pretty,
		Output:  os.Stderr,
		Service: "medimatch-server",
	})
	logger.Info().Str("env", env).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// app is the wired service.
type app struct {
	handler  http.Handler
	upstream *client.Client
	redis    *redis.Client
}

func (a *app) Close() {
	a.upstream.Close()
	if a.redis != nil {
		a.redis.Close()
	}
}

// newApp builds the component graph from cfg. Without a Redis address the
// response cache and the quota tracker are disabled.
func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	clientCfg := client.DefaultConfig(cfg.Upstream.ServiceKey)
	clientCfg.BaseURL = cfg.Upstream.BaseURL
	clientCfg.UserAgent = cfg.Upstream.UserAgent
	clientCfg.Timeout = cfg.Upstream.Timeout()
	clientCfg.CacheTTL = cfg.Cache.TTL()
	clientCfg.Retry = client.RetryConfig{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialBackoff:    time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
		BackoffMultiplier: cfg.Retry.Multiplier,
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		clientCfg.Cache = cache.NewManager(redisClient)
		clientCfg.Quota = ratelimit.NewTracker(redisClient, cfg.Upstream.DailyLimit, logger)
	} else {
		logger.Warn().Msg("No Redis configured, response cache and quota tracking disabled")
	}

	upstream, err := client.New(clientCfg)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	svc := medicine.NewService(upstream, medicine.Config{NumOfRows: cfg.Upstream.NumOfRows}, logger)

	var opts []server.Option
	if redisClient != nil {
		opts = append(opts, server.WithRedis(redisClient))
	}

	return &app{
		handler:  server.New(svc, logger, opts...).Handler(),
		upstream: upstream,
		redis:    redisClient,
	}, nil
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           a.handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("upstream", cfg.Upstream.BaseURL).
			Int64("daily_limit", cfg.Upstream.DailyLimit).
			Msg("Starting medimatch server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
