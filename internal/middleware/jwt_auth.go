package middleware

import (
	"net/http"
	"strings"

	"github.com/insectlab/bugradar/internal/auth"
	"github.com/insectlab/bugradar/internal/tokens"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

type JWTAuth struct {
	tokens    TokenValidator
	blacklist auth.TokenBlacklist // nil when Redis is not configured
}

func NewJWTAuth(t TokenValidator, b auth.TokenBlacklist) *JWTAuth {
	return &JWTAuth{tokens: t, blacklist: b}
}

// Middleware verifies the JWT and injects AuthContext
func (m *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if m.blacklist != nil {
			blacklisted, err := m.blacklist.IsBlacklisted(r.Context(), claims.ID)
			if err != nil {
				// Fail closed: an unreachable blacklist must not admit
				// possibly revoked tokens.
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if blacklisted {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		ac := &AuthContext{
			Operator: claims.Operator,
			TokenID:  claims.ID,
		}

		ctx := WithAuthContext(r.Context(), ac)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
