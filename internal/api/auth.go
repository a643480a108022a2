package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/synk/internal/session"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the account behind an authenticated request.
type Identity struct {
	UserID string
	Email  string
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(auth[len(prefix):])
	return tok, tok != ""
}

// authenticate resolves the bearer token to a logged-in account. A valid
// token for an account that has since logged out is rejected.
func authenticate(ctx context.Context, deps Deps, r *http.Request) (Identity, error) {
	tok, ok := bearerToken(r)
	if !ok {
		return Identity{}, errors.New("invalid or missing bearer token")
	}
	claims, err := deps.Tokens.Verify(tok)
	if err != nil {
		return Identity{}, errors.New("invalid or expired token")
	}
	loggedIn, err := deps.Sessions.IsLoggedIn(ctx, claims.Subject)
	if err != nil {
		return Identity{}, err
	}
	if !loggedIn {
		return Identity{}, errors.New("session has ended, log in again")
	}
	return Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// RequireSession rejects requests without a logged-in bearer token.
func RequireSession(deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r.Context(), deps, r)
			if err != nil {
				httpError(w, http.StatusUnauthorized, "authentication_error", "%v", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

// OptionalSession attaches the identity when a valid token is present and
// lets anonymous requests through.
func OptionalSession(deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := bearerToken(r); ok {
				if id, err := authenticate(r.Context(), deps, r); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleSignup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form session.SignupForm
		if !decodeBody(w, r, &form) {
			return
		}

		res, err := deps.Accounts.Signup(r.Context(), form)
		switch {
		case err == nil:
			slog.Info("account created", "user", res.Account.ID)
			writeJSON(w, http.StatusCreated, res)
		case errors.Is(err, session.ErrEmailTaken):
			httpError(w, http.StatusConflict, "conflict_error", "%v", err)
		case isValidation(err):
			validationError(w, err)
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "signup failed: %v", err)
		}
	}
}

func handleLogin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form session.LoginForm
		if !decodeBody(w, r, &form) {
			return
		}

		res, err := deps.Accounts.Login(r.Context(), form)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, session.ErrInvalidCredentials):
			httpError(w, http.StatusUnauthorized, "authentication_error", "%v", err)
		case isValidation(err):
			validationError(w, err)
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "login failed: %v", err)
		}
	}
}

func handleLogout(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		if err := deps.Accounts.Logout(r.Context(), id.UserID); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "logout failed: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
