package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"charitychain/internal/domain"
)

// App is the handler container. Repositories come in as interfaces so tests
// can swap in in-memory fakes.
type App struct {
	Logger        zerolog.Logger
	JWTSecret     string
	TokenTTL      time.Duration
	Users         domain.UserRepository
	Donations     domain.DonationRepository
	Distributions domain.DistributionRepository
}

func NewApp(logger zerolog.Logger, jwtSecret string, tokenTTL time.Duration, users domain.UserRepository, donations domain.DonationRepository, distributions domain.DistributionRepository) *App {
	return &App{
		Logger:        logger,
		JWTSecret:     jwtSecret,
		TokenTTL:      tokenTTL,
		Users:         users,
		Donations:     donations,
		Distributions: distributions,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
