package http

import (
	"net/http"
	"strings"

	"trivia-builder-service/internal/auth"
)

// Authenticator resolves the caller and stores the user id in the request
// context. With a verifier it requires a bearer token (or a token query param
// for websocket clients that cannot set headers); without one it trusts the
// userId query param, which is only meant for local development.
type Authenticator struct {
	verifier *auth.TokenVerifier
}

func NewAuthenticator(verifier *auth.TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

func (a *Authenticator) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := a.userID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

func (a *Authenticator) userID(r *http.Request) (string, bool) {
	if a.verifier == nil {
		userID := r.URL.Query().Get("userId")
		return userID, userID != ""
	}

	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		token = parts[1]
	}
	if token == "" {
		return "", false
	}
	userID, err := a.verifier.Verify(token)
	if err != nil {
		return "", false
	}
	return userID, true
}
