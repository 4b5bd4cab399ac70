package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"charitychain/internal/domain"
)

type identityContextKey struct{}

// WithIdentity attaches the resolved account to the context.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, identityContextKey{}, user)
}

// CurrentUser returns the account attached by the authentication gate, or nil.
func CurrentUser(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(identityContextKey{}).(*domain.User); ok {
		return u
	}
	return nil
}

// Authenticate is the boundary gate for every protected route. It extracts
// the bearer credential, verifies it, re-resolves the account through the
// credential store (so a deleted account invalidates outstanding tokens) and
// attaches the identity to the request context. It never inspects the
// resource being accessed.
func Authenticate(secret string, users domain.UserRepository, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			claims, err := VerifyJWT(secret, parts[1])
			if err != nil {
				logger.Debug().Err(err).Msg("token verification failed")
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			user, err := users.GetByID(r.Context(), claims.Sub)
			if err != nil {
				logger.Debug().Err(err).Str("sub", claims.Sub).Msg("token subject not resolvable")
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

// RequireRole admits a request only when the authenticated identity's role
// equals the required one. It fails safe when no identity is attached, which
// would mean the gate was wired without Authenticate in front of it.
//
// The rejected status is 401, not 403: existing clients of this API depend on
// the collapsed status code.
func RequireRole(required domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil || user.Role != required {
				writeError(w, http.StatusUnauthorized, roleDeniedMessage(required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleDeniedMessage(required domain.Role) string {
	switch required {
	case domain.RoleAdmin:
		return "Not authorized as an admin"
	case domain.RoleNgo:
		return "Not authorized as an NGO"
	case domain.RoleDonor:
		return "Not authorized as a donor"
	}
	return "Not authorized"
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
