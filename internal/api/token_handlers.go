package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carnetdigital/carnet-api/internal/auth"
	"github.com/carnetdigital/carnet-api/internal/models"
	"github.com/carnetdigital/carnet-api/internal/token"
	"github.com/go-chi/chi/v5"
)

type createTokenRequest struct {
	TokenType models.TokenType `json:"tokenType"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

func (api *Api) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidTokenType(req.TokenType) {
		writeError(w, http.StatusBadRequest, "Invalid token type")
		return
	}

	created, err := api.tokens.Create(r.Context(), principal.UserID, req.TokenType, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, token.NewTokenResponse(created, time.Now()))
}

func (api *Api) ListTokensHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rows, err := api.tokens.ListForUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tokens")
		return
	}

	now := time.Now()
	responses := make([]token.TokenResponse, 0, len(rows))
	for _, t := range rows {
		responses = append(responses, token.NewTokenResponse(t, now))
	}
	writeJSON(w, http.StatusOK, responses)
}

// ValidateTokenHandler reports the token's state in the body; the HTTP
// status is 200 even for invalid tokens
func (api *Api) ValidateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := api.tokens.Validate(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Validation failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTokenHandler returns the detail view of one of the caller's tokens,
// owner email included. Someone else's token reads as missing.
func (api *Api) GetTokenHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tokenID := chi.URLParam(r, "tokenID")

	t, err := api.tokens.GetByID(r.Context(), tokenID)
	if errors.Is(err, token.ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "Token not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load token")
		return
	}
	if t.UserID != principal.UserID && principal.Role != models.RoleAdmin {
		writeError(w, http.StatusNotFound, "Token not found")
		return
	}

	owner, err := api.users.GetByID(r.Context(), t.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load token")
		return
	}

	writeJSON(w, http.StatusOK, token.NewTokenDetailResponse(t, owner, time.Now()))
}

// DeleteTokenHandler soft-deletes one of the caller's tokens. Someone
// else's token reads as missing.
func (api *Api) DeleteTokenHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tokenID := chi.URLParam(r, "tokenID")

	t, err := api.tokens.GetByID(r.Context(), tokenID)
	if errors.Is(err, token.ErrTokenNotFound) {
		writeError(w, http.StatusNotFound, "Token not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete token")
		return
	}
	if t.UserID != principal.UserID && principal.Role != models.RoleAdmin {
		writeError(w, http.StatusNotFound, "Token not found")
		return
	}

	if err := api.tokens.Delete(r.Context(), tokenID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (api *Api) CleanupTokensHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := api.tokens.CleanExpired(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
