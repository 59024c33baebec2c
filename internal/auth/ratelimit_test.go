package auth

import (
	"testing"
	"time"
)

func testRateLimiter(maxAttempts int) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
	})
	return rl
}

func TestRateLimiter_AllowsUnknownKeys(t *testing.T) {
	rl := testRateLimiter(3)
	defer rl.Stop()

	allowed, retryAfter := rl.Allow("1.2.3.4", "ada@example.com")
	if !allowed {
		t.Error("fresh key was not allowed")
	}
	if retryAfter != 0 {
		t.Errorf("retryAfter = %v, want 0", retryAfter)
	}
}

func TestRateLimiter_LocksAfterMaxFailures(t *testing.T) {
	rl := testRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		locked, _ := rl.RecordFailure("1.2.3.4", "ada@example.com")
		if locked {
			t.Fatalf("locked after %d failures, limit is 3", i+1)
		}
	}

	locked, retryAfter := rl.RecordFailure("1.2.3.4", "ada@example.com")
	if !locked {
		t.Fatal("third failure did not trigger the lockout")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive", retryAfter)
	}

	allowed, retryAfter := rl.Allow("1.2.3.4", "ada@example.com")
	if allowed {
		t.Error("locked key was allowed")
	}
	if retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive", retryAfter)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := testRateLimiter(1)
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "ada@example.com")

	if allowed, _ := rl.Allow("1.2.3.4", "ada@example.com"); allowed {
		t.Error("locked key was allowed")
	}
	// Same IP, different email
	if allowed, _ := rl.Allow("1.2.3.4", "eve@example.com"); !allowed {
		t.Error("different email on the same IP was blocked")
	}
	// Same email, different IP
	if allowed, _ := rl.Allow("5.6.7.8", "ada@example.com"); !allowed {
		t.Error("different IP for the same email was blocked")
	}
}

func TestRateLimiter_SuccessClearsFailures(t *testing.T) {
	rl := testRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("1.2.3.4", "ada@example.com")
	rl.RecordSuccess("1.2.3.4", "ada@example.com")

	// The slate is clean: it takes the full run of failures to lock again
	locked, _ := rl.RecordFailure("1.2.3.4", "ada@example.com")
	if locked {
		t.Error("locked after a single failure following a success")
	}
}
