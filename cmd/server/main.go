package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	accountmod "github.com/capperstack/capperstack/modules/account"
	adminmod "github.com/capperstack/capperstack/modules/admin"
	billingmod "github.com/capperstack/capperstack/modules/billing"
	cappermod "github.com/capperstack/capperstack/modules/capper"
	picksmod "github.com/capperstack/capperstack/modules/picks"
	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/config"
	"github.com/capperstack/capperstack/pkg/email"
	"github.com/capperstack/capperstack/pkg/httpserver"
	"github.com/capperstack/capperstack/pkg/idempotency"
	"github.com/capperstack/capperstack/pkg/identity"
	"github.com/capperstack/capperstack/pkg/logger"
	"github.com/capperstack/capperstack/pkg/pg"
	pickscore "github.com/capperstack/capperstack/pkg/picks"
	"github.com/capperstack/capperstack/pkg/redis"
	"github.com/capperstack/capperstack/pkg/subscription"
	"github.com/capperstack/capperstack/svc/marketplace"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	HTTP     httpserver.Config
	Postgres pg.Config
	Redis    redis.Config
	Token    identity.TokenConfig
	Stripe   billing.StripeConfig
	Checkout subscription.Config
	Email    email.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.Environment, "capperstack"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	issuer, err := identity.NewTokenIssuer(cfg.Token)
	if err != nil {
		return err
	}
	auth := identity.NewMiddleware(issuer)

	provider, err := billing.NewStripeProvider(cfg.Stripe)
	if err != nil {
		return err
	}

	mailer, err := email.NewPostmarkClient(cfg.Email)
	if err != nil {
		log.Warn("email delivery disabled", "error", err)
		mailer = email.NoopSender{}
	}

	market := marketplace.NewService(
		marketplace.NewPostgresStore(pool),
		pickscore.NewPostgresStore(pool),
		provider,
		mailer,
		issuer,
		log,
	)

	subs := subscription.NewService(
		cfg.Checkout,
		provider,
		subscription.NewPostgresStore(pool),
		market, // PlanSource
		market, // CustomerSource
		market, // SettingsSource
		log,
		subscription.WithDeduper(idempotency.NewRedisDeduper(redisClient, "webhook:delivery", 0)),
	)

	gate := pickscore.NewGate(subs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(log))
	r.Get("/ready", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/account", accountmod.NewModule(market).Router())
	r.Mount("/billing", billingmod.NewModule(subs, auth, log).Router())
	r.Mount("/capper", cappermod.NewModule(market, auth).Router())
	r.Mount("/admin", adminmod.NewModule(market, auth).Router())
	r.Mount("/cappers", picksmod.NewModule(market, gate, auth).Router())

	return httpserver.Run(ctx, cfg.HTTP, r, log)
}
