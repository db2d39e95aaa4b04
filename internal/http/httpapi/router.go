package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"endorsement/internal/http/handlers"
	"endorsement/internal/middleware"
)

// Options configures the middleware stack around the handlers.
type Options struct {
	Logger             zerolog.Logger
	DefaultLocale      string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	CountryLookup      middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSAllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/batches", func(r chi.Router) {
			r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.CreateBatch)
			r.Get("/current", app.CurrentBatch)
			r.Route("/{batch_id}", func(r chi.Router) {
				r.Get("/", app.GetBatch)
				r.Get("/events", app.BatchEvents)
				r.Get("/images/{index}", app.BatchImage)
				r.Get("/archive", app.BatchArchive)
			})
		})

		r.Route("/preferences/theme", func(r chi.Router) {
			r.Get("/", app.GetTheme)
			r.Put("/", app.PutTheme)
			r.Post("/toggle", app.ToggleTheme)
		})
	})

	return r
}
