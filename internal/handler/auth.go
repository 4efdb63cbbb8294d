package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/caltrack/caltrack/internal/auth"
	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/service"
)

// AuthHandler serves signup and login on the remote backend. The token goes
// out both in the JSON body (for API clients) and as an HttpOnly cookie
// (for the browser app).
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleSignup registers an account and logs it in.
//
// HTTP: POST /auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	h.handleCredentials(w, r, h.auth.Signup, http.StatusCreated)
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.handleCredentials(w, r, h.auth.Login, http.StatusOK)
}

func (h *AuthHandler) handleCredentials(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, email, password string) (*service.AuthResult, error),
	status int,
) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := fn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookie(w, res.Token)
	writeJSON(w, status, authResponse{User: res.User, Token: res.Token})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
