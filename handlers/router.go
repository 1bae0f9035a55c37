package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"daybook/actions"
	"daybook/auth"
	"daybook/entries"
	"daybook/middleware"
	"daybook/structure"
)

// Dependencies wires the router.
type Dependencies struct {
	JWT            *auth.JWTManager
	Structures     *structure.Registry
	Entries        *entries.Store
	Actions        *actions.Engine
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Logger         *log.Logger
	Version        string
}

// NewRouter mounts the public health check and the authenticated journal API.
func NewRouter(d Dependencies) http.Handler {
	structureHandler := NewStructureHandler(d.Structures, d.Logger)
	entryHandler := NewEntryHandler(d.Entries, d.Structures, d.Logger)
	actionHandler := NewActionHandler(d.Actions, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}

	r.Get("/health", healthHandler(d.Version))

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.JWT))

		r.Post("/structure", structureHandler.Save)
		r.Get("/structure", structureHandler.Active)
		r.Get("/structure/versions", structureHandler.Versions)
		r.Get("/structure/{date}", structureHandler.ForDate)

		r.Post("/entries", entryHandler.Save)
		r.Post("/entries/quick-fill", entryHandler.QuickFill)
		r.Get("/entries/{date}", entryHandler.Get)
		r.Get("/first-entry-date", entryHandler.FirstEntryDate)

		r.Get("/actions", actionHandler.List)
		r.Post("/actions/add", actionHandler.Add)
		r.Post("/actions/remove", actionHandler.Remove)
		r.Post("/actions/register", actionHandler.Register)
		r.Post("/actions/reorder", actionHandler.Reorder)
	})

	return r
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   version,
		})
	}
}
