package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/prepdeck/prepdeck/pkg/billing"
	"github.com/prepdeck/prepdeck/pkg/entitlement"
	"github.com/prepdeck/prepdeck/pkg/httpserver"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Catalog      *plan.Catalog
	Entitlements *entitlement.Service
	Sessions     *session.Provider
	Billing      *billing.Processor

	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready lists the readiness probes behind /health/ready.
	Ready []httpserver.Check
	// Routes mounts product routes under /v1 behind authentication.
	Routes func(r chi.Router, g *Gate)

	Log *slog.Logger
}

type handlers struct {
	catalog      *plan.Catalog
	entitlements *entitlement.Service
	billing      *billing.Processor
	languages    language.Matcher
	log          *slog.Logger
}

// supportedLanguages are the locales prices are formatted for; the first is
// the fallback.
var supportedLanguages = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.German,
	language.French,
	language.Spanish,
}

// NewRouter builds the API handler.
func NewRouter(d Deps) http.Handler {
	if d.Catalog == nil || d.Entitlements == nil || d.Sessions == nil || d.Billing == nil {
		panic("api: catalog, entitlements, sessions and billing are required")
	}
	log := d.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	h := &handlers{
		catalog:      d.Catalog,
		entitlements: d.Entitlements,
		billing:      d.Billing,
		languages:    language.NewMatcher(supportedLanguages),
		log:          log,
	}
	gate := &Gate{svc: d.Entitlements, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, log, errNotFound)
	})

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(2*time.Second, log, d.Ready...))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Post("/webhooks/paddle", h.paddleWebhook)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", h.listPlans)

		r.Group(func(r chi.Router) {
			r.Use(session.Middleware(d.Sessions, func(w http.ResponseWriter, r *http.Request, err error) {
				writeError(w, r, log, err)
			}))

			r.Get("/me/entitlements", h.entitlementsOverview)
			r.Get("/me/limits/{limit}", h.checkLimit)
			r.Post("/me/downgrade-check", h.downgradeCheck)
			r.Post("/billing/checkout", h.checkout)
			r.Post("/billing/portal", h.portal)

			if d.Routes != nil {
				d.Routes(r, gate)
			}
		})
	})

	return r
}

// requestLogger logs one line per request at debug level, errors at warn.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
