// Command api serves plan, entitlement and billing endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prepdeck/prepdeck/internal/api"
	"github.com/prepdeck/prepdeck/internal/db/migrations"
	"github.com/prepdeck/prepdeck/pkg/billing"
	"github.com/prepdeck/prepdeck/pkg/config"
	"github.com/prepdeck/prepdeck/pkg/email"
	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/httpserver"
	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/pg"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/redis"
	"github.com/prepdeck/prepdeck/pkg/session"
	"github.com/prepdeck/prepdeck/pkg/subscription"
	"github.com/prepdeck/prepdeck/pkg/usage"
)

type appConfig struct {
	Env       string        `env:"APP_ENV" envDefault:"production"`
	DedupeTTL time.Duration `env:"BILLING_WEBHOOK_DEDUPE_TTL" envDefault:"72h"`

	HTTP    httpserver.Config
	PG      pg.Config
	Redis   redis.Config
	Session session.Config
	Paddle  billing.PaddleConfig
	Email   email.Config
	Prices  plan.PriceConfig
	Usage   usage.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg, ".env"); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "prepdeck-api"),
		logger.WithContextExtractors(logger.RequestIDExtractor()),
	)

	refs, err := cfg.Prices.Resolve()
	if err != nil {
		return err
	}
	catalog, err := plan.Standard(refs)
	if err != nil {
		return err
	}
	period, err := cfg.Usage.Period()
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()
	if cfg.PG.AutoMigrate {
		if err := pg.Migrate(ctx, pool, migrations.FS, cfg.PG, log.With(logger.Component("migrations"))); err != nil {
			return err
		}
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := entitlement.NewPromRecorder(registry)
	if err != nil {
		return err
	}

	subs := subscription.NewPGStore(pool)
	accountant := usage.NewAccountant(
		usage.NewPGStore(pool, usage.DefaultSources),
		usage.WithLogger(log.With(logger.Component("usage"))),
	)
	entitlements := entitlement.NewService(
		entitlement.NewEvaluator(catalog),
		accountant,
		entitlement.WithPeriod(period),
		entitlement.WithRecorder(recorder),
		entitlement.WithLogger(log.With(logger.Component("entitlement"))),
	)

	tokens, err := session.NewTokens(cfg.Session)
	if err != nil {
		return err
	}

	provider, err := billing.NewPaddleProvider(cfg.Paddle)
	if err != nil {
		return err
	}
	mailer, err := email.New(cfg.Email)
	if err != nil {
		return err
	}
	processor := billing.NewProcessor(catalog, subs, provider,
		billing.WithDeduper(billing.NewRedisDeduper(rdb, cfg.DedupeTTL)),
		billing.WithNotifier(billing.NewEmailNotifier(mailer)),
		billing.WithSuccessURL(cfg.Paddle.SuccessURL),
		billing.WithLogger(log.With(logger.Component("billing"))),
	)

	router := api.NewRouter(api.Deps{
		Catalog:      catalog,
		Entitlements: entitlements,
		Sessions:     session.NewProvider(tokens, subs, log.With(logger.Component("session"))),
		Billing:      processor,
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Ready: []httpserver.Check{
			{Name: "postgres", Fn: pg.Healthcheck(pool)},
			{Name: "redis", Fn: redis.Healthcheck(rdb)},
		},
		Log: log,
	})

	log.InfoContext(ctx, "starting api",
		slog.String("addr", cfg.HTTP.Addr),
		slog.Int("plans", len(catalog.Plans())),
	)
	return httpserver.New(cfg.HTTP, router, log).Run(ctx)
}
