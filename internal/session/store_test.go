package session

import (
	"context"
	"errors"
	"testing"

	"phonelogin/internal/autherr"
	"phonelogin/internal/files"
	"phonelogin/internal/models"
)

func sampleUser() *models.UserRecord {
	return &models.UserRecord{
		FirstName: "Sara",
		LastName:  "Ahmadi",
		Email:     "sara@example.com",
		Avatar: models.Avatar{
			Large:     "https://img.example.com/l.jpg",
			Medium:    "https://img.example.com/m.jpg",
			Thumbnail: "https://img.example.com/t.jpg",
		},
	}
}

// flakyBackend wraps a memory backend and injects failures.
type flakyBackend struct {
	*files.MemoryBackend
	setErr    error
	getErr    error
	deleteErr error
	// dropWrites makes Set succeed without storing anything.
	dropWrites bool
	// keepOnDelete makes Delete succeed without removing anything.
	keepOnDelete bool
	deletes      int
}

func newFlaky() *flakyBackend {
	return &flakyBackend{MemoryBackend: files.NewMemoryBackend(0)}
}

func (b *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.MemoryBackend.Get(ctx, key)
}

func (b *flakyBackend) Set(ctx context.Context, key string, value []byte) error {
	if b.setErr != nil {
		return b.setErr
	}
	if b.dropWrites {
		return nil
	}
	return b.MemoryBackend.Set(ctx, key, value)
}

func (b *flakyBackend) Delete(ctx context.Context, key string) error {
	b.deletes++
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if b.keepOnDelete {
		return nil
	}
	return b.MemoryBackend.Delete(ctx, key)
}

func expectStorage(t *testing.T, err error, reason autherr.Reason) {
	t.Helper()
	var aerr *autherr.Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *autherr.Error, got %v", err)
	}
	if aerr.Kind != autherr.KindStorage || aerr.Reason != reason {
		t.Fatalf("expected storage/%s, got %s/%s", reason, aerr.Kind, aerr.Reason)
	}
	if !aerr.Retryable {
		t.Fatalf("expected storage error to be retryable")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(files.NewMemoryBackend(0))

	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected empty store to be unauthenticated")
	}
	if err := s.Save(ctx, sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := s.Load(ctx)
	if got == nil || *got != *sampleUser() {
		t.Fatalf("expected %+v, got %+v", sampleUser(), got)
	}
	state := s.State(ctx)
	if !state.IsAuthenticated || state.User == nil || state.User.Email != "sara@example.com" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSaveRejectsInvalidUser(t *testing.T) {
	ctx := context.Background()
	backend := newFlaky()
	s := NewStore(backend)

	u := sampleUser()
	u.Avatar.Medium = ""
	err := s.Save(ctx, u)
	expectStorage(t, err, autherr.ReasonInvalidData)
	if err.(*autherr.Error).Message != "invalid user data" {
		t.Fatalf("unexpected message %q", err.(*autherr.Error).Message)
	}
	if _, err := backend.MemoryBackend.Get(ctx, DefaultKey); !errors.Is(err, files.ErrNotFound) {
		t.Fatalf("expected nothing written, got %v", err)
	}
	expectStorage(t, s.Save(ctx, nil), autherr.ReasonInvalidData)
}

func TestSaveClassifiesBackendFailures(t *testing.T) {
	ctx := context.Background()

	quota := newFlaky()
	quota.setErr = files.ErrQuotaExceeded
	expectStorage(t, NewStore(quota).Save(ctx, sampleUser()), autherr.ReasonQuotaExceeded)

	down := newFlaky()
	down.setErr = errors.New("disk unplugged")
	expectStorage(t, NewStore(down).Save(ctx, sampleUser()), autherr.ReasonUnavailable)

	dropped := newFlaky()
	dropped.dropWrites = true
	expectStorage(t, NewStore(dropped).Save(ctx, sampleUser()), autherr.ReasonIntegrity)
}

func TestSaveWithMemoryQuota(t *testing.T) {
	s := NewStore(files.NewMemoryBackend(16))
	expectStorage(t, s.Save(context.Background(), sampleUser()), autherr.ReasonQuotaExceeded)
}

func TestLoadSelfHeals(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       "{not json",
		"missing fields": `{"firstName":"Sara","lastName":"Ahmadi"}`,
		"wrong types":    `{"firstName":1,"lastName":"A","email":"e","avatar":{"large":"l","medium":"m","thumbnail":"t"}}`,
		"null":           `null`,
	}
	for name, raw := range cases {
		backend := newFlaky()
		if err := backend.MemoryBackend.Set(ctx, DefaultKey, []byte(raw)); err != nil {
			t.Fatalf("%s: seed: %v", name, err)
		}
		s := NewStore(backend)
		if got := s.Load(ctx); got != nil {
			t.Fatalf("%s: expected nil, got %+v", name, got)
		}
		if _, err := backend.MemoryBackend.Get(ctx, DefaultKey); !errors.Is(err, files.ErrNotFound) {
			t.Fatalf("%s: expected corrupt record to be deleted, got %v", name, err)
		}
		if got := s.Load(ctx); got != nil {
			t.Fatalf("%s: expected nil on second load, got %+v", name, got)
		}
	}
}

func TestLoadDiscardsUndecryptableRecords(t *testing.T) {
	ctx := context.Background()
	backend := newFlaky()
	backend.getErr = files.ErrCorrupt
	s := NewStore(backend)
	if s.Load(ctx) != nil {
		t.Fatalf("expected nil")
	}
	if backend.deletes != 1 {
		t.Fatalf("expected one delete, got %d", backend.deletes)
	}
}

func TestLoadKeepsRecordOnReadFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFlaky()
	backend.getErr = errors.New("connection reset")
	s := NewStore(backend)
	if s.Load(ctx) != nil {
		t.Fatalf("expected nil")
	}
	if backend.deletes != 0 {
		t.Fatalf("expected no delete on read failure, got %d", backend.deletes)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(files.NewMemoryBackend(0))
	if err := s.Save(ctx, sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected unauthenticated after clear")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("expected clearing an empty store to succeed, got %v", err)
	}
}

func TestClearFailures(t *testing.T) {
	ctx := context.Background()

	stuck := newFlaky()
	stuck.keepOnDelete = true
	s := NewStore(stuck)
	if err := s.Save(ctx, sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	expectStorage(t, s.Clear(ctx), autherr.ReasonIntegrity)

	down := newFlaky()
	down.deleteErr = errors.New("read-only file system")
	expectStorage(t, NewStore(down).Clear(ctx), autherr.ReasonUnavailable)
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	backend := files.NewMemoryBackend(0)
	s := NewStore(backend, WithKey("profile"))
	if err := s.Save(ctx, sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := backend.Get(ctx, "profile"); err != nil {
		t.Fatalf("expected record under custom key, got %v", err)
	}
}

func TestSealedFileBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	fb, err := files.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	master := make([]byte, 32)
	sealed, err := files.NewSealedBackend(fb, master, "")
	if err != nil {
		t.Fatalf("sealed backend: %v", err)
	}
	s := NewStore(sealed)
	if err := s.Save(ctx, sampleUser()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := s.Load(ctx); got == nil || got.Email != "sara@example.com" {
		t.Fatalf("expected sealed record to load, got %+v", got)
	}

	rebound, _ := files.NewSealedBackend(fb, master, "other-device")
	if NewStore(rebound).Load(ctx) != nil {
		t.Fatalf("expected record sealed for another device to be rejected")
	}
	if _, err := fb.Get(ctx, DefaultKey); !errors.Is(err, files.ErrNotFound) {
		t.Fatalf("expected rejected record to be deleted, got %v", err)
	}
}
