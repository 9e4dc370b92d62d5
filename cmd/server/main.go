package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	billinghttp "github.com/goodswim/backend/modules/billing"
	"github.com/goodswim/backend/pkg/billing"
	"github.com/goodswim/backend/pkg/config"
	"github.com/goodswim/backend/pkg/email"
	"github.com/goodswim/backend/pkg/entitlement"
	"github.com/goodswim/backend/pkg/httpserver"
	"github.com/goodswim/backend/pkg/limits"
	"github.com/goodswim/backend/pkg/logger"
	"github.com/goodswim/backend/pkg/pg"
	"github.com/goodswim/backend/pkg/redis"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	AppURL      string `env:"APP_URL" envDefault:"https://goodswim.io"`

	// Provider selects the payment processor implementation.
	Provider string `env:"BILLING_PROVIDER" envDefault:"stripe"`

	// TrialReminderLead is how far ahead of trial end the reminder email fires.
	TrialReminderLead time.Duration `env:"TRIAL_REMINDER_LEAD" envDefault:"72h"`

	// DevEmailDir enables the filesystem email sender when Postmark tokens
	// are absent.
	DevEmailDir string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "goodswim-billing"))
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	provider, err := newProvider(appCfg.Provider)
	if err != nil {
		return err
	}

	var prices billing.PriceMap
	config.MustLoad(&prices)

	store := billing.NewPostgresStore(pool)
	broadcaster := entitlement.NewRedisBroadcaster(redisClient,
		entitlement.WithBroadcasterLogger(log))

	svc := billing.NewService(store, provider, prices,
		billing.WithLogger(log),
		billing.WithAppURL(appCfg.AppURL),
		billing.WithChangePublisher(broadcaster),
	)

	registry, err := limits.NewRegistry(ctx, limits.NewPGSource(pool))
	if err != nil {
		return fmt.Errorf("feature limits: %w", err)
	}

	entClient := entitlement.NewClient(store, registry,
		entitlement.WithClientLogger(log))
	go entClient.Run(ctx, broadcaster)

	reminder := billing.NewTrialReminder(store, newEmailSender(appCfg, log), ownerEmail(pool),
		billing.WithReminderLeadTime(appCfg.TrialReminderLead),
		billing.WithReminderAppURL(appCfg.AppURL),
		billing.WithReminderLogger(log),
	)
	go reminder.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/ready", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/billing", billinghttp.Router(billinghttp.RouterOptions{
		Service:         svc,
		SignatureHeader: provider.SignatureHeader(),
		Logger:          log,
	}))

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	return httpserver.New(httpCfg, log).Run(ctx, r)
}

func newProvider(name string) (billing.PaymentProvider, error) {
	switch name {
	case "stripe":
		var cfg billing.StripeConfig
		config.MustLoad(&cfg)
		return billing.NewStripeProvider(cfg)
	case "paddle":
		var cfg billing.PaddleConfig
		config.MustLoad(&cfg)
		return billing.NewPaddleProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider %q", name)
	}
}

func newEmailSender(appCfg appConfig, log *slog.Logger) email.EmailSender {
	var cfg email.Config
	config.MustLoad(&cfg)

	sender, err := email.NewPostmarkClient(cfg)
	if err != nil {
		log.Warn("postmark not configured, writing emails to disk",
			"dir", appCfg.DevEmailDir, "error", err)
		return email.NewDevSender(appCfg.DevEmailDir)
	}
	return sender
}

// ownerEmail resolves a team's owner address from the product schema, which
// lives in the same database as the billing tables.
func ownerEmail(pool *pgxpool.Pool) billing.RecipientResolverFunc {
	return func(ctx context.Context, teamID uuid.UUID) (string, error) {
		var addr string
		err := pool.QueryRow(ctx, `
			SELECT u.email FROM teams t
			JOIN users u ON u.id = t.owner_id
			WHERE t.id = $1`, teamID).Scan(&addr)
		if err != nil {
			return "", fmt.Errorf("resolve owner email for team %s: %w", teamID, err)
		}
		return addr, nil
	}
}
