package subscription

import (
	"testing"
)

func intPtr(i int) *int { return &i }

func TestApplyUsage(t *testing.T) {
	tests := []struct {
		name     string
		sub      Subscription
		n        int
		wantUsed int
		wantErr  error
	}{
		{name: "simple", sub: Subscription{TotalSessions: 10, UsedSessions: 3}, n: 2, wantUsed: 5},
		{name: "to the limit", sub: Subscription{TotalSessions: 10, UsedSessions: 9}, n: 1, wantUsed: 10},
		{name: "past the limit", sub: Subscription{TotalSessions: 10, UsedSessions: 9}, n: 2, wantErr: ErrSessionLimitExceeded},
		{name: "exhausted", sub: Subscription{TotalSessions: 10, UsedSessions: 10}, n: 1, wantErr: ErrSessionLimitExceeded},
		{name: "zero count", sub: Subscription{TotalSessions: 10}, n: 0, wantErr: ErrInvalidSessionCounts},
		{name: "negative count", sub: Subscription{TotalSessions: 10}, n: -3, wantErr: ErrInvalidSessionCounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyUsage(tt.sub, tt.n)
			if err != tt.wantErr {
				t.Fatalf("ApplyUsage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.UsedSessions != tt.wantUsed {
				t.Errorf("ApplyUsage() used = %d, want %d", got.UsedSessions, tt.wantUsed)
			}
		})
	}

	// a 20-session pack consumed in chunks of 5 runs dry on the 21st session
	sub := Subscription{TotalSessions: 20}
	var err error
	for i := 0; i < 4; i++ {
		if sub, err = ApplyUsage(sub, 5); err != nil {
			t.Fatalf("ApplyUsage() failed on chunk %d: %v", i+1, err)
		}
	}
	if got := sub.RemainingSessions(); got != 0 {
		t.Errorf("RemainingSessions() = %d, want 0", got)
	}
	if got := sub.Status(); got != StatusExhausted {
		t.Errorf("Status() = %q, want %q", got, StatusExhausted)
	}
	if _, err = ApplyUsage(sub, 1); err != ErrSessionLimitExceeded {
		t.Errorf("ApplyUsage() error = %v, want %v", err, ErrSessionLimitExceeded)
	}
}

func TestApplyPatch(t *testing.T) {
	base := Subscription{TotalSessions: 10, UsedSessions: 6}

	tests := []struct {
		name                string
		us                  UpdateSubscription
		wantTotal, wantUsed int
		wantErr             error
	}{
		{name: "noop", wantTotal: 10, wantUsed: 6},
		{name: "grow total", us: UpdateSubscription{TotalSessions: intPtr(15)}, wantTotal: 15, wantUsed: 6},
		{name: "correct used", us: UpdateSubscription{UsedSessions: intPtr(4)}, wantTotal: 10, wantUsed: 4},
		{name: "both", us: UpdateSubscription{TotalSessions: intPtr(8), UsedSessions: intPtr(8)}, wantTotal: 8, wantUsed: 8},
		{name: "total below used", us: UpdateSubscription{TotalSessions: intPtr(5)}, wantErr: ErrInvalidSessionCounts},
		{name: "used above total", us: UpdateSubscription{UsedSessions: intPtr(11)}, wantErr: ErrInvalidSessionCounts},
		{name: "negative used", us: UpdateSubscription{UsedSessions: intPtr(-1)}, wantErr: ErrInvalidSessionCounts},
		{name: "zero total below used", us: UpdateSubscription{TotalSessions: intPtr(0)}, wantErr: ErrInvalidSessionCounts},
		{name: "zeroed pack", us: UpdateSubscription{TotalSessions: intPtr(0), UsedSessions: intPtr(0)}, wantTotal: 0, wantUsed: 0},
		{name: "negative total", us: UpdateSubscription{TotalSessions: intPtr(-1)}, wantErr: ErrInvalidSessionCounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyPatch(base, tt.us)
			if err != tt.wantErr {
				t.Fatalf("ApplyPatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.TotalSessions != tt.wantTotal || got.UsedSessions != tt.wantUsed {
				t.Errorf("ApplyPatch() = (%d, %d), want (%d, %d)",
					got.TotalSessions, got.UsedSessions, tt.wantTotal, tt.wantUsed)
			}
		})
	}
}

func TestStatusDerivation(t *testing.T) {
	active := Subscription{TotalSessions: 10, UsedSessions: 9}
	if got := active.Status(); got != StatusActive {
		t.Errorf("Status() = %q, want %q", got, StatusActive)
	}
	if got := active.RemainingSessions(); got != 1 {
		t.Errorf("RemainingSessions() = %d, want 1", got)
	}
}
