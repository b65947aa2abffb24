package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kythia/dashboard-backend/api/controllers"
	"github.com/kythia/dashboard-backend/api/middleware"
	"github.com/kythia/dashboard-backend/internal/botapi"
	"github.com/kythia/dashboard-backend/internal/licenses"
	"github.com/kythia/dashboard-backend/internal/visitors"
	"github.com/kythia/dashboard-backend/pkg/auth/session"
	"github.com/kythia/dashboard-backend/pkg/config"
	"github.com/kythia/dashboard-backend/pkg/logger"
	"github.com/kythia/dashboard-backend/pkg/metrics"
	"github.com/kythia/dashboard-backend/pkg/ratelimit"
)

// Pinger answers a liveness ping against a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP Pinger,
	cacheP Pinger,
	sessionManager *session.Manager,
	sessions session.SessionChecker,
	limiter ratelimit.Limiter,
	met *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	licenseService licenses.Service,
	visitorService visitors.Service,
	botClient *botapi.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, met),
		middleware.CORS(),
	)

	verifyPolicy := ratelimit.NewPolicy("verify", cfg.RateLimit.VerifyLimit, cfg.RateLimit.VerifyWindow)
	telemetryPolicy := ratelimit.NewPolicy("telemetry", cfg.RateLimit.TelemetryLimit, cfg.RateLimit.TelemetryWindow)
	generatePolicy := ratelimit.NewPolicy("generate", cfg.RateLimit.GenerateLimit, cfg.RateLimit.GenerateWindow)
	listPolicy := ratelimit.NewPolicy("list", cfg.RateLimit.ListLimit, cfg.RateLimit.ListWindow)
	detailPolicy := ratelimit.NewPolicy("detail", cfg.RateLimit.DetailLimit, cfg.RateLimit.DetailWindow)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cacheP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Bot-facing surface, authenticated by license key only.
	r.Route("/api/v1/license", func(r chi.Router) {
		r.With(middleware.RateLimit(verifyPolicy, limiter, met, logg)).
			Post("/verify", controllers.LicenseVerify(licenseService, logg))
		r.With(middleware.RateLimit(telemetryPolicy, limiter, met, logg)).
			Post("/telemetry", controllers.TelemetryIngest(licenseService, logg))

		// Admin surface, owner allow-list only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.RequireOwner(cfg.License, logg))

			r.With(middleware.RateLimit(listPolicy, limiter, met, logg)).
				Get("/list", controllers.LicenseList(licenseService, logg))
			r.With(middleware.RateLimit(generatePolicy, limiter, met, logg)).
				Post("/generate", controllers.LicenseGenerate(licenseService, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RateLimit(detailPolicy, limiter, met, logg))
				r.Get("/", controllers.LicenseGet(licenseService, logg))
				r.Patch("/", controllers.LicensePatch(licenseService, logg))
				r.Delete("/", controllers.LicenseDelete(licenseService, logg))
			})
		})
	})

	// Session exchange for the OAuth frontend.
	if sessionManager != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.Post("/session", controllers.SessionOpen(sessionManager, cfg.JWT, logg))
			r.Post("/logout", controllers.SessionRevoke(sessionManager, cfg.JWT, logg))
		})
	}

	// Public marketing data.
	r.Route("/api/v1/meta", func(r chi.Router) {
		r.Get("/stats", controllers.MetaStats(botClient))
		r.Get("/commands", controllers.MetaCommands(botClient))
		r.Get("/changelog", controllers.MetaChangelog(botClient))
	})
	r.Post("/api/v1/visitors/track", controllers.VisitorTrack(visitorService, logg))

	// Authenticated dashboard data.
	r.Route("/api/v1/guilds", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Get("/", controllers.GuildList(botClient))
		r.Get("/{id}", controllers.GuildGet(botClient, logg))
	})

	// Catch-all pass-through to the bot API.
	r.Route("/api/proxy", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Handle("/*", controllers.Proxy(botClient, logg))
	})

	return r
}
