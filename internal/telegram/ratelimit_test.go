package telegram

import (
	"testing"
	"time"
)

func TestChatLimiter_Burst(t *testing.T) {
	l := newChatLimiter(6, 3)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow(1) {
			t.Fatalf("request %d within burst was refused", i+1)
		}
	}
	if l.Allow(1) {
		t.Error("request past burst should be refused")
	}

	// 6/min refills one token every 10s.
	now = now.Add(10 * time.Second)
	if !l.Allow(1) {
		t.Error("token should have refilled")
	}
}

func TestChatLimiter_PerChat(t *testing.T) {
	l := newChatLimiter(1, 1)

	if !l.Allow(1) {
		t.Fatal("first request from chat 1 refused")
	}
	if l.Allow(1) {
		t.Error("second request from chat 1 should be refused")
	}
	if !l.Allow(2) {
		t.Error("chat 2 has its own bucket")
	}
}

func TestChatLimiter_Disabled(t *testing.T) {
	tests := []struct {
		name      string
		perMinute int
	}{
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newChatLimiter(tt.perMinute, 5)
			if l != nil {
				t.Fatal("expected nil limiter")
			}
			for i := 0; i < 100; i++ {
				if !l.Allow(1) {
					t.Fatal("nil limiter must allow everything")
				}
			}
		})
	}
}

func TestChatLimiter_ZeroBurstAllowsOne(t *testing.T) {
	l := newChatLimiter(1, 0)
	if !l.Allow(1) {
		t.Error("burst is clamped to 1")
	}
}

func TestChatLimiter_PrunesIdleChats(t *testing.T) {
	l := newChatLimiter(6, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.lastPrune = now
	l.now = func() time.Time { return now }

	l.Allow(1)
	l.Allow(2)
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow(3)

	if l.size() != 1 {
		t.Errorf("size = %d, want 1 after pruning", l.size())
	}
}
