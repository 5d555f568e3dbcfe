// Package app builds the binder object graph from configuration. The server
// and the operator CLI share it so both act on the same stores and policy.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"casbinder/internal/admin"
	"casbinder/internal/binder/bulk"
	"casbinder/internal/binder/events"
	"casbinder/internal/binder/service"
	accountstore "casbinder/internal/binder/store/account"
	linkstore "casbinder/internal/binder/store/link"
	"casbinder/internal/cas"
	"casbinder/internal/oidc"
	"casbinder/internal/platform/config"
	"casbinder/internal/platform/database"
	"casbinder/internal/platform/kafka"
	"casbinder/internal/platform/metrics"
	"casbinder/internal/platform/redis"
	"casbinder/internal/universalid"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/platform/audit/publishers/compliance"
	auditmemory "casbinder/pkg/platform/audit/store/memory"
	auditpostgres "casbinder/pkg/platform/audit/store/postgres"
	"casbinder/pkg/platform/circuit"
)

const memoryCacheCleanup = 10 * time.Minute

// App holds the wired services and the resources they own.
type App struct {
	Config  config.Server
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Binder        *service.Binder
	Assigner      *bulk.Assigner
	Admin         *admin.Service
	CAS           *cas.Client
	Authenticator *oidc.Authenticator

	DB       *sql.DB
	Redis    *goredis.Client
	Producer *kafka.Producer

	closers []func()
}

// Build connects to every configured backend and wires the services.
// Without DATABASE_URL the directory lives in memory, which suits local runs
// and tests only.
func Build(ctx context.Context, cfg config.Server, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New(reg)}
	if err := a.build(ctx, reg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

type storage struct {
	accounts interface {
		service.AccountStore
		bulk.AccountStore
		admin.AccountStore
	}
	links interface {
		service.LinkStore
		bulk.LinkStore
	}
	audit audit.Store
	tx    service.Tx
}

func (a *App) build(ctx context.Context, reg prometheus.Registerer) error {
	cfg := a.Config

	st, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	if err := a.connectRedis(ctx); err != nil {
		return err
	}
	auditor := compliance.New(st.audit,
		compliance.WithLogger(a.Logger),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)

	listener, err := a.listener(ctx)
	if err != nil {
		return err
	}

	a.Binder, err = service.New(st.accounts, st.links, st.tx, service.Config{
		CreateAccounts:     cfg.CAS.CreateUser,
		SyncAttributes:     cfg.CAS.SyncAttributes,
		UsernameTriesLimit: cfg.CAS.UsernameTriesLimit,
	},
		service.WithLogger(a.Logger),
		service.WithMetrics(a.Metrics),
		service.WithListener(listener),
		service.WithAuditPublisher(auditor),
	)
	if err != nil {
		return fmt.Errorf("build binder: %w", err)
	}

	if cfg.CAS.ServerURL == "" {
		a.Logger.Warn("CAS_SERVER_URL not set, provider login and token auth disabled")
		a.Assigner, err = bulk.New(st.accounts, st.links, st.tx,
			bulk.WithLogger(a.Logger),
			bulk.WithMetrics(a.Metrics),
			bulk.WithAuditPublisher(auditor),
		)
		if err != nil {
			return fmt.Errorf("build assigner: %w", err)
		}
	} else {
		if err := a.buildProviderClients(ctx, st, auditor); err != nil {
			return err
		}
	}

	a.Admin, err = admin.New(a.Assigner, a.Binder, st.accounts,
		admin.WithLogger(a.Logger),
		admin.WithAuditPublisher(auditor),
	)
	if err != nil {
		return fmt.Errorf("build admin service: %w", err)
	}
	return nil
}

func (a *App) buildProviderClients(ctx context.Context, st *storage, auditor *compliance.Publisher) error {
	cfg := a.Config
	httpClient := &http.Client{Timeout: cfg.Provider.Timeout}
	breaker := circuit.New("cas")

	var err error
	a.CAS, err = cas.New(cfg.CAS.ServerURL,
		cas.WithHTTPClient(httpClient),
		cas.WithBreaker(breaker),
		cas.WithProtocolVersion(cfg.CAS.ProtocolVersion),
		cas.WithMetrics(a.Metrics),
		cas.WithLogger(a.Logger),
	)
	if err != nil {
		return fmt.Errorf("build cas client: %w", err)
	}

	fetcher, err := universalid.New(cfg.CAS.ServerURL,
		universalid.WithHTTPClient(httpClient),
		universalid.WithMetrics(a.Metrics),
	)
	if err != nil {
		return fmt.Errorf("build universal id client: %w", err)
	}
	a.Assigner, err = bulk.New(st.accounts, st.links, st.tx,
		bulk.WithLogger(a.Logger),
		bulk.WithMetrics(a.Metrics),
		bulk.WithAuditPublisher(auditor),
		bulk.WithFetcher(fetcher),
	)
	if err != nil {
		return fmt.Errorf("build assigner: %w", err)
	}

	introspector, err := oidc.New(cfg.CAS.ServerURL,
		oidc.WithHTTPClient(httpClient),
		oidc.WithMetrics(a.Metrics),
		oidc.WithLogger(a.Logger),
		oidc.WithBreaker(breaker),
		oidc.WithClaimsCache(a.claimsCache(), cfg.Provider.ClaimsCacheTTL),
	)
	if err != nil {
		return fmt.Errorf("build oidc client: %w", err)
	}
	a.Authenticator = oidc.NewAuthenticator(introspector, a.Binder)
	return nil
}

func (a *App) openStorage(ctx context.Context) (*storage, error) {
	if a.Config.DatabaseURL == "" {
		a.Logger.Warn("DATABASE_URL not set, using in-memory directory")
		accounts := accountstore.NewInMemory()
		links := linkstore.NewInMemory()
		trail := auditmemory.NewInMemoryStore()
		return &storage{
			accounts: accounts,
			links:    links,
			audit:    trail,
			tx:       service.NewInMemoryTx(accounts, links, trail),
		}, nil
	}

	db, err := database.Open(ctx, a.Config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	return &storage{
		accounts: accountstore.NewPostgres(db),
		links:    linkstore.NewPostgres(db),
		audit:    auditpostgres.New(db),
		tx:       database.NewTx(db).WithTimeout(a.Config.TxTimeout),
	}, nil
}

// listener always logs; Kafka publishing is added when brokers are configured.
func (a *App) listener(ctx context.Context) (service.Listener, error) {
	dispatcher := events.NewDispatcher(events.NewLogListener(a.Logger))
	if len(a.Config.Kafka.Brokers) == 0 {
		return dispatcher, nil
	}

	producer, err := kafka.NewProducer(a.Config.Kafka.Brokers, a.Config.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	a.Producer = producer
	a.closers = append(a.closers, producer.Close)
	if err := producer.EnsureTopic(ctx, a.Config.Kafka.Topic, 3, 1); err != nil {
		return nil, fmt.Errorf("ensure kafka topic: %w", err)
	}
	dispatcher.Register(events.NewKafkaPublisher(producer, a.Config.Kafka.Topic))
	return dispatcher, nil
}

// claimsCache prefers Redis so replicas share introspection results.
func (a *App) claimsCache() oidc.ClaimsCache {
	if a.Config.Provider.ClaimsCacheTTL <= 0 {
		return nil
	}
	if a.Redis != nil {
		return oidc.NewRedisCache(a.Redis)
	}
	return oidc.NewMemoryCache(memoryCacheCleanup)
}

// connectRedis opens the optional Redis client backing the claims cache.
func (a *App) connectRedis(ctx context.Context) error {
	client, err := redis.Connect(ctx, a.Config.Redis)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	a.Redis = client
	a.closers = append(a.closers, func() { _ = client.Close() })
	return nil
}

// Migrate applies pending schema migrations. It is a no-op in memory mode.
func (a *App) Migrate(ctx context.Context) (database.Status, error) {
	if a.DB == nil {
		return database.Status{}, nil
	}
	return database.Migrate(ctx, a.Config.DatabaseURL, a.Logger)
}

// HealthChecks returns one check per configured backend.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.DB != nil {
		checks["postgres"] = a.DB.PingContext
	}
	if a.Redis != nil {
		checks["redis"] = redis.HealthCheck(a.Redis)
	}
	if a.Producer != nil {
		checks["kafka"] = a.Producer.Ping
	}
	return checks
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

var errNoProvider = errors.New("CAS_SERVER_URL is required for this operation")

// RequireProvider fails when no provider is configured.
func (a *App) RequireProvider() error {
	if a.CAS == nil {
		return errNoProvider
	}
	return nil
}
