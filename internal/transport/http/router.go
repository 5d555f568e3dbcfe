// Package httptransport mounts the public HTTP surface: browser login through
// CAS, the token-protected API and the admin API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "casbinder/internal/admin/handler"
	"casbinder/internal/oidc"
	"casbinder/pkg/platform/httputil"
	adminmw "casbinder/pkg/platform/middleware/admin"
	"casbinder/pkg/platform/middleware/metadata"
	"casbinder/pkg/platform/middleware/request"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck = func(ctx context.Context) error

// Deps is everything the router mounts. Nil optional fields disable their routes.
type Deps struct {
	Logger        *slog.Logger
	Login         *LoginHandler
	Authenticator *oidc.Authenticator
	Admin         *adminhandler.Handler
	AdminTokens   adminmw.TokenValidator
	Gatherer      prometheus.Gatherer
	HealthChecks  map[string]HealthCheck
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Recovery(d.Logger))

	r.Get("/healthz", healthz(d.HealthChecks))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if d.Login != nil {
		r.Get("/login", d.Login.handleLogin)
		r.Get("/logout", d.Login.handleLogout)
	}

	if d.Login != nil && d.Authenticator != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(oidc.RequireToken(d.Authenticator, d.Logger))
			r.Get("/me", d.Login.handleMe)
		})
	}

	if d.Admin != nil && d.AdminTokens != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.AdminTokens, d.Logger))
			d.Admin.Register(r)
		})
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for name, check := range checks {
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
