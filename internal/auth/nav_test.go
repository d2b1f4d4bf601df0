package auth

import (
	"context"
	"sync"

	"phonelogin/internal/navigation"
)

// recordingNav remembers every requested destination.
type recordingNav struct {
	mu   sync.Mutex
	last navigation.Destination
	n    int
}

func (r *recordingNav) Navigate(ctx context.Context, to navigation.Destination) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = to
	r.n++
	return nil
}

func (r *recordingNav) Last() (navigation.Destination, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.n > 0
}

func (r *recordingNav) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type navFunc func(ctx context.Context, to navigation.Destination) error

func (f navFunc) Navigate(ctx context.Context, to navigation.Destination) error { return f(ctx, to) }
