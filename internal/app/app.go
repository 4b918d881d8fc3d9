// Package app assembles the pipeline and its backing services from
// configuration for both the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/api"
	"github.com/sungwon/recipient-check/internal/collector"
	"github.com/sungwon/recipient-check/internal/config"
	"github.com/sungwon/recipient-check/internal/pipeline"
	"github.com/sungwon/recipient-check/internal/ratelimit"
	"github.com/sungwon/recipient-check/internal/report"
	"github.com/sungwon/recipient-check/internal/usage"
	"github.com/sungwon/recipient-check/internal/validator"
)

// Options tune what New requires.
type Options struct {
	// RequireValidator fails New when the validation service is not
	// configured. When false, a missing API key leaves a validator that
	// rejects every address, which preview runs never reach.
	RequireValidator bool
}

// App holds the wired orchestrator and the resources it owns.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Reports      report.Store
	Ready        map[string]api.Pinger

	closers []func()
}

// New connects the configured backends and builds the orchestrator.
// Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (a *App, err error) {
	a = &App{Ready: map[string]api.Pinger{}}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	v, service, err := newValidator(cfg.Validator, log, opts.RequireValidator)
	if err != nil {
		return nil, err
	}

	throttler, err := a.newThrottler(ctx, cfg.RateLimit, log)
	if err != nil {
		return nil, err
	}

	recorder, err := a.newUsage(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a.Reports, err = report.New(report.Config{
		Type:       cfg.Report.Type,
		Path:       cfg.Report.Path,
		S3Bucket:   cfg.Report.S3Bucket,
		S3Prefix:   cfg.Report.S3Prefix,
		S3Endpoint: cfg.Report.S3Endpoint,
		S3Region:   cfg.Report.S3Region,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create report store: %w", err)
	}

	a.Orchestrator = pipeline.New(pipeline.Options{
		Collector: collector.New(log.With().Str("component", "collector").Logger()),
		Validator: v,
		Throttler: throttler,
		Interval:  cfg.RateLimit.Interval,
		Service:   service,
		Usage:     recorder,
		Reports:   a.Reports,
		Log:       log.With().Str("component", "pipeline").Logger(),
	})
	return a, nil
}

func newValidator(cfg config.ValidatorConfig, log zerolog.Logger, required bool) (validator.Validator, string, error) {
	vc := validator.Config{APIKey: cfg.APIKey, Endpoint: cfg.Endpoint, Timeout: cfg.Timeout}
	if err := vc.Validate(); err != nil {
		if required {
			return nil, "", err
		}
		log.Warn().Err(err).Msg("validation service not configured, validation runs will mark every address invalid")
		return validator.Func(func(_ context.Context, addr string) validator.Verdict {
			return validator.Verdict{Address: addr}
		}), "unconfigured", nil
	}
	client := validator.NewAbstractClient(vc, validator.NewHTTPClient(vc.Timeout),
		log.With().Str("component", "validator").Logger())
	return client, client.Name(), nil
}

func (a *App) newThrottler(ctx context.Context, cfg config.RateLimitConfig, log zerolog.Logger) (ratelimit.Throttler, error) {
	if cfg.Backend != "redis" {
		return ratelimit.NewFixed(cfg.Interval, nil), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	a.Ready["redis"] = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	log.Info().Str("addr", cfg.RedisAddr).Dur("interval", cfg.Interval).Msg("using shared redis throttle")

	return ratelimit.NewRedis(rdb, cfg.Key, cfg.Interval, nil, log), nil
}

func (a *App) newUsage(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (usage.Recorder, error) {
	if cfg.URL == "" {
		return usage.Nop{}, nil
	}

	db, err := usage.NewDB(ctx, cfg.URL, cfg.PoolMin, cfg.PoolMax, cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect usage database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.Ready["database"] = db

	rec := usage.NewPGRecorder(db)
	if err := rec.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate usage ledger: %w", err)
	}
	log.Info().Msg("usage ledger enabled")
	return rec, nil
}

// Close releases every resource New opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
