package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dbh-bot/dbh/internal/services"
	"github.com/dbh-bot/dbh/types"
	"github.com/go-chi/chi/v5"
)

// AuthHandler provides the web account endpoints.
type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, accounts *services.AccountService) {
	handler := NewAuthHandler(accounts)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer token to an account and injects it into
// the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		account, err := h.accounts.ResolveAccount(r.Context(), services.AccountQuery{Token: token})
		if err != nil {
			if services.CodeOf(err) == services.CodeAccountNotFound {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeServiceError(w, err, "failed to authenticate")
			return
		}

		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), account)))
	})
}

// Register creates a web account and returns a token for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.accounts.RegisterAccount(r.Context(), services.Registration{
		Login:    req.Login,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create account")
		return
	}

	h.respondWithToken(w, http.StatusCreated, account)
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	identifier := strings.TrimSpace(req.Login)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	account, err := h.accounts.ResolveAccount(r.Context(), services.AccountQuery{
		Credentials: &services.Credentials{Identifier: identifier, Password: req.Password},
	})
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	h.respondWithToken(w, http.StatusOK, account)
}

// Me returns the current authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	snapshot := h.accounts.Snapshot(account)
	writeJSON(w, http.StatusOK, &snapshot)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, account *types.WebAccount) {
	snapshot := h.accounts.Snapshot(account)
	token, err := h.accounts.Issue(services.ClaimsFor(&snapshot))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, Account: &snapshot})
}

type RegisterRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string            `json:"token"`
	Account *types.WebAccount `json:"account"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
