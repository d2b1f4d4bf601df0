package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"phonelogin/internal/autherr"
	"phonelogin/internal/models"
	"phonelogin/internal/navigation"
	"phonelogin/internal/phone"
)

// State is a step of the login flow.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateFetching    State = "fetching"
	StatePersisting  State = "persisting"
	StateRedirecting State = "redirecting"
	StateDone        State = "done"
	StateError       State = "error"
)

// DefaultMaxRetries is the retry budget of one submission.
const DefaultMaxRetries = 3

var (
	// ErrBusy is returned when a run is already in flight.
	ErrBusy = errors.New("login already in progress")
	// ErrRetryNotAllowed is returned by Retry when no retry is on offer.
	ErrRetryNotAllowed = errors.New("retry not allowed")
)

// Fetcher retrieves the identity for a submission.
type Fetcher interface {
	FetchIdentity(ctx context.Context) (*models.UserRecord, error)
}

// SessionWriter persists the fetched identity.
type SessionWriter interface {
	Save(ctx context.Context, user *models.UserRecord) error
}

// Observer is told about every transition and every finished run.
type Observer interface {
	ObserveTransition(from, to string)
	ObserveRun(err *autherr.Error, retries int, elapsed time.Duration)
}

// LoginConfig tunes the flow.
type LoginConfig struct {
	MaxRetries int
	// FetchDelay and RedirectDelay keep fast transitions from flickering.
	FetchDelay    time.Duration
	RedirectDelay time.Duration
}

// Snapshot is a consistent copy of the controller's state.
type Snapshot struct {
	State      State          `json:"state"`
	Phone      string         `json:"phone,omitempty"`
	Error      *autherr.Error `json:"-"`
	RetryCount int            `json:"retryCount"`
	MaxRetries int            `json:"maxRetries"`
	CanRetry   bool           `json:"canRetry"`
	CanReset   bool           `json:"canReset"`
	Notice     *Notice        `json:"notice,omitempty"`
}

// Login sequences validation, fetch, persistence and redirect for one user.
type Login struct {
	fetcher  Fetcher
	store    SessionWriter
	nav      navigation.Navigator
	cfg      LoginConfig
	log      zerolog.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	state      State
	err        *autherr.Error
	retryCount int
	input      string
	normalized string
	running    bool
	runID      string
}

// LoginOption configures a Login.
type LoginOption func(*Login)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) LoginOption {
	return func(l *Login) { l.log = log }
}

// WithObserver registers an observer.
func WithObserver(o Observer) LoginOption {
	return func(l *Login) { l.observer = o }
}

// NewLogin returns an idle controller.
func NewLogin(fetcher Fetcher, store SessionWriter, nav navigation.Navigator, cfg LoginConfig, opts ...LoginOption) *Login {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	l := &Login{
		fetcher: fetcher,
		store:   store,
		nav:     nav,
		cfg:     cfg,
		log:     zerolog.Nop(),
		sleep:   sleepCtx,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("component", "login").Logger()
	return l
}

// Submit starts a fresh submission. The error and retry count of any
// earlier submission are cleared. The returned error is the one presented
// to the user, or ErrBusy.
func (l *Login) Submit(ctx context.Context, input string) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrBusy
	}
	l.running = true
	l.err = nil
	l.retryCount = 0
	l.input = input
	l.normalized = ""
	l.runID = uuid.NewString()
	l.mu.Unlock()

	return l.run(ctx)
}

// Retry re-runs the whole sequence for the remembered input. It is only
// allowed while a retryable error is presented and the budget is not spent.
func (l *Login) Retry(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrBusy
	}
	if !l.canRetryLocked() {
		l.mu.Unlock()
		return ErrRetryNotAllowed
	}
	l.running = true
	l.err = nil
	l.mu.Unlock()

	return l.run(ctx)
}

// Reset returns the controller to idle and forgets everything.
func (l *Login) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrBusy
	}
	from := l.state
	l.state = StateIdle
	l.err = nil
	l.retryCount = 0
	l.input = ""
	l.normalized = ""
	l.runID = ""
	l.notifyTransition(from, StateIdle)
	return nil
}

// CanRetry reports whether Retry would be accepted.
func (l *Login) CanRetry() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.running && l.canRetryLocked()
}

// CanReset reports whether the error view should offer a reset.
func (l *Login) CanReset() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.running && l.state == StateError
}

// Snapshot returns the current state.
func (l *Login) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Snapshot{
		State:      l.state,
		Phone:      l.normalized,
		Error:      l.err,
		RetryCount: l.retryCount,
		MaxRetries: l.cfg.MaxRetries,
		CanRetry:   !l.running && l.canRetryLocked(),
		CanReset:   !l.running && l.state == StateError,
	}
	if l.err != nil {
		n := NewNotice(l.err, l.retryCount, l.cfg.MaxRetries)
		s.Notice = &n
	}
	return s
}

func (l *Login) canRetryLocked() bool {
	return l.state == StateError && l.err != nil && l.err.Retryable && l.retryCount < l.cfg.MaxRetries
}

func (l *Login) run(ctx context.Context) error {
	start := time.Now()
	err := l.steps(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	log := l.log.With().Str("run_id", l.runID).Int("retry_count", l.retryCount).Logger()
	if err != nil {
		if err.Retryable {
			l.retryCount++
		}
		l.err = err
		l.transitionLocked(StateError)
		log.Warn().Str("kind", string(err.Kind)).Str("reason", string(err.Reason)).Err(err).Msg("login failed")
	} else {
		l.transitionLocked(StateDone)
		log.Info().Msg("login complete")
	}
	if l.observer != nil {
		l.observer.ObserveRun(err, l.retryCount, time.Since(start))
	}
	if err != nil {
		return err
	}
	return nil
}

func (l *Login) steps(ctx context.Context) *autherr.Error {
	l.transition(StateValidating)
	if err := l.validate(); err != nil {
		return err
	}

	l.transition(StateFetching)
	if err := l.sleep(ctx, l.cfg.FetchDelay); err != nil {
		return autherr.General(err)
	}
	user, err := l.fetcher.FetchIdentity(ctx)
	if err != nil {
		return autherr.As(err)
	}

	// The record only lives in this run. A failed save drops it and a retry
	// fetches again.
	l.transition(StatePersisting)
	if err := l.store.Save(ctx, user); err != nil {
		aerr := autherr.As(err)
		if aerr.Kind != autherr.KindStorage {
			aerr = autherr.Storage(autherr.ReasonUnavailable, aerr.Message, err)
		}
		return aerr
	}

	l.transition(StateRedirecting)
	if err := l.sleep(ctx, l.cfg.RedirectDelay); err != nil {
		return autherr.Redirect(err)
	}
	if err := l.nav.Navigate(ctx, navigation.Protected); err != nil {
		return autherr.Redirect(err)
	}
	return nil
}

func (l *Login) validate() *autherr.Error {
	l.mu.Lock()
	input := l.input
	l.mu.Unlock()

	if strings.TrimSpace(input) == "" {
		return autherr.Validation(autherr.ReasonEmptyInput, "phone number is required")
	}
	if !phone.Validate(input) {
		return autherr.Validation(autherr.ReasonInvalidFormat, "phone number format is invalid")
	}
	l.mu.Lock()
	l.normalized = phone.Normalize(input)
	l.mu.Unlock()
	return nil
}

func (l *Login) transition(to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitionLocked(to)
}

func (l *Login) transitionLocked(to State) {
	from := l.state
	l.state = to
	l.log.Debug().Str("run_id", l.runID).Str("from", string(from)).Str("state", string(to)).Msg("transition")
	l.notifyTransition(from, to)
}

func (l *Login) notifyTransition(from, to State) {
	if l.observer != nil {
		l.observer.ObserveTransition(string(from), string(to))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
