package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"

	"github.com/carnetdigital/carnet-api/internal/auth"
	"github.com/carnetdigital/carnet-api/internal/users"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func validatePassword(password string) bool {
	return len(password) >= 8
}

// clientKey is the per-caller component of the login rate-limit key
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (api *Api) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validateEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}
	if !validatePassword(req.Password) {
		writeError(w, http.StatusBadRequest, "Password does not meet requirements")
		return
	}

	user, err := api.users.Register(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if errors.Is(err, users.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email exists")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, user.Summarize())
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := api.coordinator.Login(r.Context(), creds.Email, creds.Password, clientKey(r))
	switch {
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrInactiveAccount):
		writeError(w, http.StatusForbidden, "Account is not active")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Login failed")
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (api *Api) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := api.coordinator.Refresh(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, auth.ErrInactiveAccount):
		writeError(w, http.StatusForbidden, "Account is not active")
	case errors.Is(err, auth.ErrWrongTokenKind),
		errors.Is(err, auth.ErrTokenAlreadyUsed),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrSignatureInvalid),
		errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, users.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Refresh failed")
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// LogoutHandler always reports success, whatever the token's state. The
// value comes from the Authorization header when present, the body
// otherwise.
func (api *Api) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	value, ok := auth.BearerToken(r)
	if !ok {
		var req struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			value = req.AccessToken
		}
	}

	api.coordinator.Logout(r.Context(), value)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (api *Api) MeHandler(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := api.users.GetByID(r.Context(), principal.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, user.Summarize())
}
