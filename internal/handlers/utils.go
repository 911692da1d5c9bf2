package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dbh-bot/dbh/internal/services"
	"github.com/dbh-bot/dbh/types"
)

type contextKey string

const contextAccountKey contextKey = "account"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func withAccount(ctx context.Context, account *types.WebAccount) context.Context {
	return context.WithValue(ctx, contextAccountKey, account)
}

func accountFromContext(ctx context.Context) (*types.WebAccount, error) {
	account, ok := ctx.Value(contextAccountKey).(*types.WebAccount)
	if !ok || account == nil {
		return nil, errors.New("missing account")
	}
	return account, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service failure codes onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch services.CodeOf(err) {
	case services.CodeMissingCredential:
		writeError(w, http.StatusBadRequest, "missing credentials")
	case services.CodeCredentialTaken:
		writeError(w, http.StatusConflict, "login or email already taken")
	case services.CodeAccountNotFound:
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case services.CodeTokenExpired:
		writeError(w, http.StatusUnauthorized, "token expired")
	case services.CodeTokenInvalid:
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case services.CodeNotFound:
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
