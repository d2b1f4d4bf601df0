package api

import (
	"context"
	"errors"

	"phonelogin/internal/navigation"
)

var errNoResponse = errors.New("no response to redirect")

type redirectKey struct{}

type redirectSlot struct {
	to  navigation.Destination
	set bool
}

// RedirectNavigator turns navigation into an HTTP redirect of the request
// the flow runs in.
type RedirectNavigator struct{}

func (RedirectNavigator) Navigate(ctx context.Context, to navigation.Destination) error {
	slot, ok := ctx.Value(redirectKey{}).(*redirectSlot)
	if !ok {
		return errNoResponse
	}
	slot.to = to
	slot.set = true
	return nil
}

func withRedirectSlot(ctx context.Context) (context.Context, *redirectSlot) {
	slot := &redirectSlot{}
	return context.WithValue(ctx, redirectKey{}, slot), slot
}
