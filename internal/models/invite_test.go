package models

import (
	"testing"
	"time"
)

func TestInviteCodeExpired(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	invite := InviteCode{Code: "ABC123", HouseholdID: "h1", ExpirationTime: expiry}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before expiry", expiry.Add(-time.Hour), false},
		{"instant before expiry", expiry.Add(-time.Nanosecond), false},
		{"exactly at expiry", expiry, true},
		{"after expiry", expiry.Add(time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := invite.Expired(tc.now); got != tc.want {
				t.Errorf("Expired(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
