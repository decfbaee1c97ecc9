package api

import (
	"encoding/json"
	"net/http"

	"github.com/insectlab/bugradar/internal/auth"
	"github.com/insectlab/bugradar/internal/middleware"
	"github.com/insectlab/bugradar/internal/tokens"
)

// AuthHandler issues and revokes operator tokens. The rig has exactly one
// operator account, configured as a username plus an Argon2id hash.
type AuthHandler struct {
	Tokens       *tokens.Manager
	Blacklist    auth.TokenBlacklist // nil when Redis is not configured
	Operator     string
	PasswordHash string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // Seconds
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Username != h.Operator {
		// Burn a hash check anyway so username probing and password
		// failure take the same time.
		auth.CheckPassword(req.Password, "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g")
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	match, err := auth.CheckPassword(req.Password, h.PasswordHash)
	if err != nil || !match {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Tokens.GenerateToken(req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(h.Tokens.TTL().Seconds()),
	})
}

// Logout blacklists the current token's jti until it would have expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.Blacklist == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if err := h.Blacklist.AddToBlacklist(r.Context(), ac.TokenID, h.Tokens.TTL()); err != nil {
		respondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
