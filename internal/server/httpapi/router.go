package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/yanplatform/internal/logging"
	"github.com/dmitrijs2005/yanplatform/internal/server/config"
	"github.com/dmitrijs2005/yanplatform/internal/server/guard"
	"github.com/dmitrijs2005/yanplatform/internal/server/metrics"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators of the router.
type Deps struct {
	Config       *config.Config
	Users        *services.UserService
	Applications *services.ApplicationService
	Progress     *services.ProgressService
	Documents    Presigner
	Metrics      *metrics.Collector
	Log          logging.Logger
}

// NewRouter builds the HTTP handler. Every API route is served both at the
// root and under /api.
func NewRouter(d Deps) http.Handler {
	h := &Handlers{
		users:        d.Users,
		applications: d.Applications,
		progress:     d.Progress,
		documents:    d.Documents,
		guard:        guard.New(d.Users.Tokens(), d.Users),
		log:          d.Log.With("module", "http"),
		production:   d.Config.Production,
	}
	limiter := newIPRateLimiter(d.Config.AuthRateLimitPerMinute)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(h.log))
	r.Use(d.Metrics.InstrumentHandler)
	if len(d.Config.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.Config.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limiter.Handler).Post("/register", h.Register)
			r.With(limiter.Handler).Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.With(h.RequireAuth).Get("/me", h.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Route("/applications", func(r chi.Router) {
				r.Post("/", h.SubmitApplication)
				r.With(h.RequireRoles(models.RoleAdmin)).Get("/", h.ListApplications)
				r.Get("/{id}", h.GetApplication)
				r.With(h.RequireRoles(models.RoleAdmin)).Patch("/{id}/status", h.UpdateApplicationStatus)
				r.With(h.RequireRoles(models.RoleAdmin)).Get("/{id}/history", h.ApplicationHistory)
			})

			r.Post("/uploads/presign", h.PresignUpload)
			r.Post("/resources/{id}/complete", h.CompleteResource)
			r.Get("/resources/progress/me", h.MyProgress)
		})
	}

	api(r)
	r.Route("/api", api)

	return r
}
