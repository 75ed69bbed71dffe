package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
)

func TestInvitationCodeCheck(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	upcoming := database.Event{Date: now.Add(7 * 24 * time.Hour)}
	past := database.Event{Date: yesterday}

	tests := []struct {
		name  string
		code  database.InvitationCode
		event database.Event
		want  database.InvitationReason
	}{
		{
			name:  "inactive is reported first",
			code:  database.InvitationCode{IsActive: false, MaxUses: 1, TimesUsed: 1, ExpiresAt: &yesterday},
			event: past,
			want:  database.ReasonInactive,
		},
		{
			name:  "exhausted before expired",
			code:  database.InvitationCode{IsActive: true, MaxUses: 1, TimesUsed: 1, ExpiresAt: &yesterday},
			event: past,
			want:  database.ReasonExhausted,
		},
		{
			name:  "expired before event past",
			code:  database.InvitationCode{IsActive: true, MaxUses: 2, TimesUsed: 1, ExpiresAt: &yesterday},
			event: past,
			want:  database.ReasonExpired,
		},
		{
			name:  "event past",
			code:  database.InvitationCode{IsActive: true, MaxUses: 2, TimesUsed: 1},
			event: past,
			want:  database.ReasonEventPast,
		},
		{
			name:  "valid",
			code:  database.InvitationCode{IsActive: true, MaxUses: 2, TimesUsed: 1},
			event: upcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.code.Check(tt.event, now)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Check() error = %v, want nil", err)
				}
				return
			}

			var invErr *database.InvitationError
			if !errors.As(err, &invErr) {
				t.Fatalf("Check() error = %v, want *InvitationError", err)
			}
			if invErr.Reason != tt.want {
				t.Errorf("reason = %q, want %q", invErr.Reason, tt.want)
			}
		})
	}
}
