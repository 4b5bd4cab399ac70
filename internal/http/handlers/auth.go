package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"charitychain/internal/domain"
	"charitychain/internal/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

type profileResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// dummyHash is a bcrypt hash compared against when the email is unknown, so
// login latency does not reveal whether an account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Register creates an account and returns its public fields plus a fresh
// bearer token. A duplicate email is a 400 with the exact legacy message.
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid user data")
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		a.error(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("hash password failed")
		a.error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        domain.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			a.error(w, http.StatusBadRequest, "User already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("create user failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := middleware.IssueToken(a.JWTSecret, user.ID, a.TokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	a.Logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("country", middleware.CountryFromContext(r.Context())).
		Msg("user registered")

	a.json(w, http.StatusCreated, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
		Token: token,
	})
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the identical response.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid user data")
		return
	}

	user, err := a.Users.GetByEmail(r.Context(), domain.NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Error().Err(err).Msg("lookup user failed")
		}
		// Burn the same bcrypt cost as a real comparison.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
		a.error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := middleware.IssueToken(a.JWTSecret, user.ID, a.TokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign token failed")
		a.error(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	a.Logger.Info().
		Str("user_id", user.ID).
		Str("country", middleware.CountryFromContext(r.Context())).
		Msg("user logged in")

	a.json(w, http.StatusOK, authResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
		Token: token,
	})
}

// Profile returns the authenticated account's public fields.
func (a *App) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		a.error(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	a.json(w, http.StatusOK, profileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	})
}
