// Package api is the HTTP surface of the synk daemon.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/synk/internal/catalog"
	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/metrics"
	"github.com/kalambet/synk/internal/profile"
	"github.com/kalambet/synk/internal/recommend"
	"github.com/kalambet/synk/internal/session"
)

type Deps struct {
	Accounts  *session.Accounts
	Sessions  *session.Manager
	Tokens    *session.Tokens
	Profiles  *profile.Manager
	Recommend *recommend.Service
	Locator   *geo.Locator
	Catalog   *catalog.Catalog

	CORSOrigins []string
	// AuthRateLimit is the per-IP requests per minute allowed on signup and
	// login. Zero disables the limit.
	AuthRateLimit int
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(recordMetrics)

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(deps.AuthRateLimit, time.Minute))
			}
			r.Post("/signup", handleSignup(deps))
			r.Post("/login", handleLogin(deps))
		})
		r.With(RequireSession(deps)).Post("/logout", handleLogout(deps))
	})

	r.With(OptionalSession(deps)).Get("/search", handleSearch(deps))

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(deps))

		r.Get("/session", handleGetSession(deps))
		r.Put("/session/tab", handleSetTab(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handleSaveProfile(deps))

		r.Post("/recommendations", handleRecommend(deps))
		r.Get("/recommendations/last", handleLastRecommendation(deps))

		r.Post("/location/resolve", handleResolveLocation(deps))

		r.Get("/events", handleListEvents(deps))
		r.Post("/events", handleCreateEvent(deps))
		r.Get("/events/{id}", handleGetEvent(deps))

		r.Get("/communities", handleListCommunities(deps))
		r.Post("/communities", handleCreateCommunity(deps))
		r.Get("/communities/{id}", handleGetCommunity(deps))

		r.Get("/threads", handleListThreads(deps))
		r.Post("/threads", handleCreateThread(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// recordMetrics labels requests by route pattern so ids don't explode the
// label space.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
