package reliability

import (
	"testing"
	"time"
)

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !IsRetryableStatus(code) {
			t.Fatalf("IsRetryableStatus(%d) = false, want true", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		if IsRetryableStatus(code) {
			t.Fatalf("IsRetryableStatus(%d) = true, want false", code)
		}
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	base := 200 * time.Millisecond
	cap := 2 * time.Second

	if got := Backoff(0, base, cap); got != base {
		t.Fatalf("Backoff(0) = %v, want %v", got, base)
	}
	if got := Backoff(1, base, cap); got != 400*time.Millisecond {
		t.Fatalf("Backoff(1) = %v, want 400ms", got)
	}
	if got := Backoff(10, base, cap); got != cap {
		t.Fatalf("Backoff(10) = %v, want cap %v", got, cap)
	}
}
