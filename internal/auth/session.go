package auth

import (
	"context"

	"github.com/rs/zerolog"

	"phonelogin/internal/autherr"
	"phonelogin/internal/models"
	"phonelogin/internal/navigation"
)

// SessionStore is the part of the session store views depend on.
type SessionStore interface {
	Load(ctx context.Context) *models.UserRecord
	Clear(ctx context.Context) error
}

// Guard checks the session once per view entry.
type Guard struct {
	store SessionStore
	nav   navigation.Navigator
	log   zerolog.Logger
}

// NewGuard returns a guard over store.
func NewGuard(store SessionStore, nav navigation.Navigator, log zerolog.Logger) *Guard {
	return &Guard{
		store: store,
		nav:   nav,
		log:   log.With().Str("component", "guard").Logger(),
	}
}

// RequireAuthenticated returns the stored user. With no session it sends
// the user to the public view and reports false.
func (g *Guard) RequireAuthenticated(ctx context.Context) (*models.UserRecord, bool) {
	user := g.store.Load(ctx)
	if user != nil {
		return user, true
	}
	if err := g.nav.Navigate(ctx, navigation.Public); err != nil {
		g.log.Warn().Err(err).Msg("redirect to public view failed")
	}
	return nil, false
}

// RedirectIfAuthenticated sends a signed-in user from the public view to the
// protected one and reports whether it did.
func (g *Guard) RedirectIfAuthenticated(ctx context.Context) bool {
	if g.store.Load(ctx) == nil {
		return false
	}
	if err := g.nav.Navigate(ctx, navigation.Protected); err != nil {
		g.log.Warn().Err(err).Msg("redirect to protected view failed")
		return false
	}
	return true
}

// Logout clears the session and returns to the public view.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return autherr.As(err)
	}
	if err := g.nav.Navigate(ctx, navigation.Public); err != nil {
		return autherr.Redirect(err)
	}
	g.log.Info().Msg("logged out")
	return nil
}
