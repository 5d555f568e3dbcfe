package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	adminhandler "casbinder/internal/admin/handler"
	"casbinder/internal/app"
	jwttoken "casbinder/internal/jwt_token"
	"casbinder/internal/platform/config"
	"casbinder/internal/platform/httpserver"
	"casbinder/internal/platform/logger"
	httptransport "casbinder/internal/transport/http"
)

// main wires dependencies, serves HTTP and shuts down on SIGINT/SIGTERM.
// Business logic lives in the internal service packages.
func main() {
	config.LoadDotEnv(".env")
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.Build(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	schema, err := a.Migrate(ctx)
	if err != nil {
		return err
	}
	if schema.Changed {
		log.Info("applied migrations", "version", schema.Version)
	}

	deps := httptransport.Deps{
		Logger:        log,
		Authenticator: a.Authenticator,
		Gatherer:      reg,
		HealthChecks:  a.HealthChecks(),
	}
	if a.CAS != nil {
		deps.Login = httptransport.NewLoginHandler(a.CAS, a.Binder, log)
	}
	if cfg.AdminJWTSecret != "" {
		tokens, err := jwttoken.NewService(cfg.AdminJWTSecret)
		if err != nil {
			return err
		}
		deps.Admin = adminhandler.New(a.Admin, log)
		deps.AdminTokens = tokens
	} else {
		log.Warn("ADMIN_JWT_SECRET not set, admin API disabled")
	}

	log.Info("starting casbinder", "addr", cfg.Addr, "create_accounts", cfg.CAS.CreateUser)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(deps))
	return httpserver.ListenAndServe(ctx, srv, httpserver.DefaultShutdownTimeout, log)
}
