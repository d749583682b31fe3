package domain

import (
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{State: StateAwaitTime, UpdatedAt: start}

	tests := []struct {
		name string
		now  time.Time
		ttl  time.Duration
		want bool
	}{
		{name: "fresh", now: start.Add(time.Minute), ttl: 15 * time.Minute, want: false},
		{name: "stale", now: start.Add(16 * time.Minute), ttl: 15 * time.Minute, want: true},
		{name: "no ttl", now: start.Add(24 * time.Hour), ttl: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.Expired(tt.now, tt.ttl); got != tt.want {
				t.Fatalf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateIdle.String() != "idle" || StateAwaitTime.String() != "await_time" {
		t.Fatalf("unexpected state names %q %q", StateIdle, StateAwaitTime)
	}
}
