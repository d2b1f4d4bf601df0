package files

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisBackend(client, "phonelogin:"), mr
}

func TestRedisBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestRedis(t)

	if _, err := b.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := b.Set(ctx, "user", []byte("payload")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, err := mr.Get("phonelogin:user")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if raw != "payload" {
		t.Fatalf("unexpected raw value %q", raw)
	}
	got, err := b.Get(ctx, "user")
	if err != nil || string(got) != "payload" {
		t.Fatalf("expected payload, got %q (%v)", got, err)
	}
	if err := b.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("phonelogin:user") {
		t.Fatalf("expected key to be removed")
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	b := NewRedisBackend(client, "")

	err := b.Set(context.Background(), "user", []byte("x"))
	if err == nil {
		t.Fatalf("expected error with redis down")
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("did not expect a quota error, got %v", err)
	}
}

type fakeRedisError string

func (e fakeRedisError) Error() string { return string(e) }
func (fakeRedisError) RedisError() {}

func TestIsOOM(t *testing.T) {
	oom := fakeRedisError("OOM command not allowed when used memory > 'maxmemory'.")
	if !isOOM(fmt.Errorf("set: %w", oom)) {
		t.Fatalf("expected OOM reply to be detected")
	}
	if isOOM(fakeRedisError("ERR wrong number of arguments")) {
		t.Fatalf("did not expect generic reply to be OOM")
	}
	if isOOM(errors.New("OOM but not from redis")) {
		t.Fatalf("did not expect non-redis error to be OOM")
	}
}
