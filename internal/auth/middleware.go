// internal/auth/middleware.go
//
// Request middleware placing the authenticated player into the context.

package auth

import (
	"context"
	"net/http"
)

// Player is the request-scoped identity.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxPlayerKey struct{}

func WithPlayer(ctx context.Context, p *Player) context.Context {
	return context.WithValue(ctx, ctxPlayerKey{}, p)
}

// PlayerFrom returns the authenticated player or nil for guests.
func PlayerFrom(ctx context.Context) *Player {
	p, _ := ctx.Value(ctxPlayerKey{}).(*Player)
	return p
}

// Exists reports whether a player id still refers to an account.
type Exists func(ctx context.Context, id string) bool

// Middleware resolves tokens into players.
type Middleware struct {
	Issuer  *Issuer
	Cookies Cookies
	Exists  Exists
}

func (m Middleware) resolve(r *http.Request) *Player {
	tok := m.Cookies.Token(r)
	if tok == "" {
		return nil
	}
	c, err := m.Issuer.Parse(tok)
	if err != nil {
		return nil
	}
	if m.Exists != nil && !m.Exists(r.Context(), c.ID) {
		return nil
	}
	return &Player{ID: c.ID, Username: c.Username}
}

// Optional decorates requests with the player when a valid token is present.
// It never rejects; guests pass through.
func (m Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := m.resolve(r); p != nil {
			r = r.WithContext(WithPlayer(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token for an existing player.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := m.resolve(r)
		if p == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), p)))
	})
}
