package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"charitychain/internal/domain"
	"charitychain/internal/http/handlers"
	"charitychain/internal/infra"
	"charitychain/internal/middleware"
)

// NewRouter wires the HTTP contract: public credential endpoints, the
// authentication gate, the per-role gates and the two ledger resources.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.ClientCountry(lookup),
		middleware.Logger(logger),
		middleware.Metrics,
		middleware.CORS(cfg.CORSOrigins),
	)

	authn := middleware.Authenticate(app.JWTSecret, app.Users, logger)
	donorOnly := middleware.RequireRole(domain.RoleDonor)
	ngoOnly := middleware.RequireRole(domain.RoleNgo)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/users", func(r chi.Router) {
		limited := middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)
		r.With(limited).Post("/register", app.Register)
		r.With(limited).Post("/login", app.Login)
		r.With(authn).Get("/profile", app.Profile)
	})

	r.Route("/donations", func(r chi.Router) {
		r.Use(authn)
		r.With(donorOnly).Post("/", app.DonationsCreate)
		r.Get("/", app.DonationsList)
		r.Get("/user", app.DonationsListMine)
	})

	r.Route("/distributions", func(r chi.Router) {
		r.Use(authn)
		r.With(ngoOnly).Post("/", app.DistributionsCreate)
		r.Get("/", app.DistributionsList)
		r.With(ngoOnly).Get("/ngo", app.DistributionsListMine)
	})

	// The legacy API answers every unmatched route, wrong method included,
	// with the same JSON 404.
	notFound := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Route not found"}` + "\n"))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
