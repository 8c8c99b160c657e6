package api

import (
	"context"
	"errors"
	"net/http"

	"techhourse/internal/account"
	"techhourse/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// currentUserKey is the context key for the logged-in account
const currentUserKey contextKey = "current_user"

// CurrentUserMiddleware looks up the logged-in account once per request and
// stores it in the request context. Requests without a logged-in account
// pass through unchanged.
func (s *Server) CurrentUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" || s.accounts == nil {
			next.ServeHTTP(w, r)
			return
		}
		a, err := s.accounts.Current(r.Context())
		if err != nil {
			if !errors.Is(err, account.ErrNotLoggedIn) {
				s.logger.Warn("current user lookup failed: %v", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), currentUserKey, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects requests made while nobody is logged in.
func (s *Server) requireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			s.writeError(w, r, account.ErrNotLoggedIn)
			return
		}
		h(w, r)
	}
}

// CurrentUser returns the account stored by CurrentUserMiddleware, or nil.
func CurrentUser(ctx context.Context) *store.Account {
	a, _ := ctx.Value(currentUserKey).(*store.Account)
	return a
}
