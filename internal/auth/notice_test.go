package auth

import (
	"testing"

	"phonelogin/internal/autherr"
)

func TestNoticeQuotaAndUnavailableDiffer(t *testing.T) {
	quota := NewNotice(autherr.Storage(autherr.ReasonQuotaExceeded, "full", nil), 1, 3)
	down := NewNotice(autherr.Storage(autherr.ReasonUnavailable, "down", nil), 1, 3)
	if quota.Remedy == down.Remedy {
		t.Fatalf("expected different remedies, both %q", quota.Remedy)
	}
	if quota.Attempt != "attempt 1 of 3" {
		t.Fatalf("unexpected attempt %q", quota.Attempt)
	}
}

func TestNoticeValidationHasNoAttempt(t *testing.T) {
	n := NewNotice(autherr.Validation(autherr.ReasonInvalidFormat, "bad"), 0, 3)
	if n.Attempt != "" || n.Retryable || n.Exhausted {
		t.Fatalf("unexpected notice %+v", n)
	}
	if n.Title != "Invalid phone number" {
		t.Fatalf("unexpected title %q", n.Title)
	}
}

func TestNoticeExhausted(t *testing.T) {
	n := NewNotice(autherr.Network(autherr.ReasonTimeout, "slow", nil), 3, 3)
	if !n.Exhausted || n.Attempt != "attempt 3 of 3" {
		t.Fatalf("unexpected notice %+v", n)
	}
	if n.Title != "Request timed out" {
		t.Fatalf("unexpected title %q", n.Title)
	}
}
