// Command report prints the school statistics report.
//
// Usage:
//
//	report [flags] [report|import|export|leaderboard]
//
// "report" (the default) loads the school, prints the report and optionally
// publishes the ranking to Redis. "import" copies a dataset file into
// PostgreSQL, "export" writes the loaded school as YAML and "leaderboard"
// prints the ranking last published to Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/alem-hub/school-report/config"
	"github.com/alem-hub/school-report/internal/application/query"
	"github.com/alem-hub/school-report/internal/application/report"
	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/infrastructure/dataset"
	"github.com/alem-hub/school-report/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/school-report/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/school-report/internal/interface/cli"
	"github.com/alem-hub/school-report/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := parseOptions(cfg, args, os.Stderr)
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	runID := uuid.New().String()
	log := setupLogger(cfg, os.Stderr).With("run_id", runID)
	log.Debug("starting",
		"app", cfg.App.Name,
		"version", cfg.App.Version,
		"command", opts.Command,
		"source", opts.Source,
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.App.Timeout)
	defer cancel()

	presenter := cli.NewPresenter(stdout, opts.Format, opts.Color)

	switch opts.Command {
	case commandReport:
		return runReport(ctx, cfg, opts, runID, presenter, log)
	case commandImport:
		return runImport(ctx, cfg, opts, log)
	case commandExport:
		s, err := loadSchool(ctx, cfg, opts, log)
		if err != nil {
			return err
		}
		return dataset.Encode(stdout, s)
	case commandLeaderboard:
		return runLeaderboard(ctx, cfg, opts, presenter, log)
	default:
		return fmt.Errorf("unknown command %q", opts.Command)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func runReport(ctx context.Context, cfg *config.Config, opts *options, runID string, presenter *cli.Presenter, log *slog.Logger) error {
	s, err := loadSchool(ctx, cfg, opts, log)
	if err != nil {
		return err
	}

	rep, err := report.NewBuilder(query.NewService(s), log).Build(report.Request{
		ID:           runID,
		Scopes:       opts.Scopes,
		Subjects:     opts.Subjects,
		RankingScope: opts.RankingScope,
		TopN:         opts.TopN,
	})
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if err := presenter.Render(rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if !opts.Publish {
		return nil
	}
	if len(rep.Ranking) == 0 {
		log.Warn("nothing to publish", "scope", opts.RankingScope.String())
		return nil
	}

	cache, err := connectRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := redis.NewLeaderboardCache(cache).Publish(ctx, rep.RankingOf, rep.Ranking, rep.ID); err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	log.Info("leaderboard published",
		"scope", rep.RankingOf,
		"entries", len(rep.Ranking),
	)
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, opts *options, log *slog.Logger) error {
	var (
		s   *school.School
		err error
	)
	if opts.Path != "" {
		s, err = dataset.LoadFile(opts.Path)
	} else {
		s, err = dataset.Sample()
	}
	if err != nil {
		return err
	}

	conn, err := connectPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres.NewSchoolRepository(conn, log).ReplaceSchool(ctx, s)
}

func runLeaderboard(ctx context.Context, cfg *config.Config, opts *options, presenter *cli.Presenter, log *slog.Logger) error {
	if opts.TopN <= 0 {
		return errors.New("-top must be positive for the leaderboard command")
	}

	cache, err := connectRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cache.Close()

	scope := opts.RankingScope.String()
	ranking, err := redis.NewLeaderboardCache(cache).Top(ctx, scope, opts.TopN)
	if err != nil {
		return fmt.Errorf("read leaderboard %s: %w", scope, err)
	}
	return presenter.RenderRanking(scope, ranking)
}

// ══════════════════════════════════════════════════════════════════════════════
// DATA SOURCES
// ══════════════════════════════════════════════════════════════════════════════

func loadSchool(ctx context.Context, cfg *config.Config, opts *options, log *slog.Logger) (*school.School, error) {
	start := time.Now()

	var (
		s   *school.School
		err error
	)
	switch opts.Source {
	case config.SourceSample:
		s, err = dataset.Sample()
	case config.SourceFile:
		s, err = dataset.LoadFile(opts.Path)
	case config.SourcePostgres:
		var conn *postgres.Connection
		conn, err = connectPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		s, err = postgres.NewSchoolRepository(conn, log).LoadSchool(ctx)
	default:
		err = fmt.Errorf("unknown dataset source %q", opts.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("load school: %w", err)
	}

	log.Debug("school loaded", "source", opts.Source, "latency", time.Since(start))
	return s, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	r := connectRetrier("database", cfg.Database.ConnectAttempts, cfg.Database.RetryDelay, cfg.Database.RetryMaxDelay, log)

	conn, err := retry.DoWithData(ctx, r, func(ctx context.Context) (*postgres.Connection, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
		conn, err := postgres.NewConnection(ctx, pgCfg)
		if errors.Is(err, postgres.ErrInvalidConfig) {
			return nil, retry.Permanent(err)
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Debug("database connection established")
	return conn, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redis.Cache, error) {
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	redisCfg.TTL = cfg.Redis.TTL

	r := connectRetrier("redis", cfg.Redis.ConnectAttempts, cfg.Redis.RetryDelay, cfg.Redis.RetryMaxDelay, log)

	cache, err := retry.DoWithData(ctx, r, func(ctx context.Context) (*redis.Cache, error) {
		return redis.NewCache(ctx, redisCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisCfg.Addr(), err)
	}

	log.Debug("redis connection established", "addr", redisCfg.Addr())
	return cache, nil
}

// connectJitter spreads reconnect attempts when several runs start together.
const connectJitter = 0.2

func connectRetrier(target string, attempts int, delay, maxDelay time.Duration, log *slog.Logger) *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(attempts),
		retry.WithInitialDelay(delay),
		retry.WithMaxDelay(maxDelay),
		retry.WithJitter(connectJitter),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn(target+" connection failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		}),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger writes to w so that logs never mix with the report on stdout.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Observability.LogLevel),
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.IsProduction() || cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
