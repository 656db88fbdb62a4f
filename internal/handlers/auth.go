package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

// Authenticator resolves the current user of a request. Sign-in itself
// happens elsewhere.
type Authenticator interface {
	Authenticate(r *http.Request) (models.Identity, bool)
}

// SessionValidator is satisfied by services.SessionStore.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (models.Identity, bool, error)
}

// SessionAuthenticator reads a bearer token from the Authorization header,
// or from the token query parameter for browser WebSocket clients.
type SessionAuthenticator struct {
	Sessions SessionValidator
	Logger   *slog.Logger
}

func (a SessionAuthenticator) Authenticate(r *http.Request) (models.Identity, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return models.Identity{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	id, ok, err := a.Sessions.ValidateSession(ctx, token)
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("session lookup failed", "error", err)
		}
		return models.Identity{}, false
	}
	return id, ok
}

// HeaderAuthenticator trusts X-User-ID, X-User-Name and X-User-Email. It is
// only wired outside production, when no session store is configured.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (models.Identity, bool) {
	uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if uid == "" {
		return models.Identity{}, false
	}
	id := models.Identity{UserID: uid}
	if name := r.Header.Get("X-User-Name"); name != "" {
		id.DisplayName = models.Ptr(name)
	}
	if email := r.Header.Get("X-User-Email"); email != "" {
		id.Email = models.Ptr(email)
	}
	return id, true
}

func extractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
