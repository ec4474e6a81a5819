package routes

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zenjournal/zenjournal-backend/internal/config"
	"github.com/zenjournal/zenjournal-backend/internal/handlers"
	"github.com/zenjournal/zenjournal-backend/internal/middleware"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

// Deps are the wired services the router exposes. Media, Events and
// RateLimiter are optional.
type Deps struct {
	Config      *config.Config
	Auth        *services.AuthService
	Entries     *services.EntryService
	Media       handlers.Uploader
	Events      handlers.EventSubscriber
	RateLimiter *middleware.RedisRateLimiter
	Health      map[string]handlers.Pinger
}

// NewRouter builds the full HTTP handler: shared middleware, the API and
// the gatekept page routes.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(d.Config.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if d.Config.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(d.Config.AllowedHost) {
			r.Use(mw)
		}
	} else if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	r.Use(middleware.Session(d.Auth))

	SetupRoutes(r, d)
	return r
}

func SetupRoutes(r chi.Router, d Deps) {
	secure := d.Config.IsProduction()
	authHandler := handlers.NewAuthHandler(d.Auth, secure)
	entryHandler := handlers.NewEntryHandler(d.Entries)
	uploadHandler := handlers.NewUploadHandler(d.Media)

	r.Get("/health", handlers.Health(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/{id}", entryHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)
				r.Get("/", entryHandler.List)
				r.Post("/", entryHandler.Create)
				r.Put("/{id}", entryHandler.Update)
				r.Delete("/{id}", entryHandler.Delete)
			})
		})

		r.With(middleware.RequireSession).Post("/uploads", uploadHandler.Upload)

		r.NotFound(handlers.APINotFound)
		r.MethodNotAllowed(handlers.APIMethodNotAllowed)
	})

	if d.Events != nil {
		eventsHandler := handlers.NewEventsHandler(d.Events, d.Config.AllowedOrigins)
		r.With(middleware.RequireSession).Get("/ws/entries", eventsHandler.Stream)
	}

	pages := middleware.Gatekeeper(handlers.Pages(d.Config.WebDir))
	r.NotFound(pages.ServeHTTP)
}
