package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/word-duel/internal/auth/jwt"
	"github.com/gokatarajesh/word-duel/internal/config"
	"github.com/gokatarajesh/word-duel/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/word-duel/internal/db/sqlc"
	"github.com/gokatarajesh/word-duel/internal/duel"
	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
	"github.com/gokatarajesh/word-duel/internal/duel/queue"
	"github.com/gokatarajesh/word-duel/internal/leaderboard"
	"github.com/gokatarajesh/word-duel/internal/logging"
	"github.com/gokatarajesh/word-duel/internal/metrics"
	"github.com/gokatarajesh/word-duel/internal/server"
	"github.com/gokatarajesh/word-duel/internal/words"
	ws "github.com/gokatarajesh/word-duel/pkg/http/ws"
)

// Application owns the process: stores, HTTP server and background workers.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	duelHandler    *duel.Handler
	wordWarmer     *words.Warmer
	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
}

// New bootstraps logger, Postgres, Redis, the duel services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, err := pgxpool.New(ctx, cfg.Postgres.PoolDSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	queries := sqlcgen.New(pool)
	wordRepo := repository.NewWordRepository(queries)
	duelRepo := repository.NewDuelRepository(queries)

	preset, err := difficulty.ParsePreset(cfg.Duel.DefaultPreset)
	if err != nil {
		return nil, err
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		AccessSecret: []byte(cfg.Security.JWTSecret),
		Issuer:       cfg.Security.JWTIssuer,
		Leeway:       cfg.Security.JWTLeeway,
	})

	collector := metrics.New(prometheus.DefaultRegisterer)
	wsHub := ws.NewHub(logger)

	wordSvc := words.NewService(wordRepo, words.NewCache(redisClient, cfg.Words.CacheTTL), logger)

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:             cfg.Leaderboard.TopN,
		PubSubChannel:    cfg.Leaderboard.PubSubChannel,
		SnapshotTopLimit: cfg.Leaderboard.SnapshotTopN,
	})

	duelSvc := duel.NewService(
		duel.NewRedisStore(redisClient, cfg.Duel.StoreTTL, logger),
		wordSvc,
		duelRepo,
		leaderboardSvc,
		collector,
		duel.Options{
			QuestionCount:      cfg.Duel.QuestionCount,
			PerQuestionSeconds: cfg.Duel.PerQuestionSeconds,
			Mode:               duel.Mode(cfg.Duel.DefaultMode),
			Preset:             preset,
			SabotageDuration:   cfg.Duel.SabotageDuration,
			SabotagesPerPlayer: cfg.Duel.SabotagesPerPlayer,
			SeedSalt:           []byte(cfg.Security.SeedSalt),
		},
		logger,
	)

	queueMgr := queue.NewManager(logger, queue.WithSizeObserver(collector.SetQueueWaiting))
	duelHandler := duel.NewHandler(duelSvc, queueMgr, wsHub, tokens, server.NewUpgrader(cfg.CORS.AllowedOrigins), logger)

	wordWarmer := words.NewWarmer(wordSvc, cfg.Words.WarmLists, cfg.Words.WarmInterval, logger)

	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, cfg.Leaderboard.PubSubChannel, logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, queries, logger)
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(
			leaderboardSvc,
			queries,
			interval,
			cfg.Leaderboard.SnapshotTopN,
			logger,
		)
	}

	apiServer := server.NewHTTPServer(cfg, logger, server.Handlers{
		Tokens:      tokens,
		Duels:       duelHandler,
		Leaderboard: lbHTTPHandler.HandleGet,
		WordLists:   words.NewHTTPHandler(wordSvc, logger),
		Gatherer:    prometheus.DefaultGatherer,
		Checks: map[string]func(context.Context) error{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		duelHandler:    duelHandler,
		wordWarmer:     wordWarmer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
	}, nil
}

// Run serves HTTP and the background workers until SIGINT/SIGTERM, ctx
// cancellation or a listener failure, then shuts everything down in order:
// listener, duel timers, workers, stores.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workersCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, w := range a.workers() {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.run(workersCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Str("worker", w.name).Msg("background worker stopped")
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown requested")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.duelHandler.Close(shutdownCtx)
	stopWorkers()
	wg.Wait()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}
	a.logger.Info().Msg("shutdown complete")
	return runErr
}

type worker struct {
	name string
	run  func(context.Context) error
}

func (a *Application) workers() []worker {
	out := []worker{
		{name: "word_list_warmer", run: a.wordWarmer.Run},
		{name: "leaderboard_broadcaster", run: a.lbBroadcaster.Run},
	}
	if a.snapshotWorker != nil {
		out = append(out, worker{name: "leaderboard_snapshots", run: a.snapshotWorker.Run})
	}
	return out
}
