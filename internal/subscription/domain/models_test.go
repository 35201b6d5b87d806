package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from SubscriptionStatus
		to   SubscriptionStatus
		want bool
	}{
		{"active to cancelled", SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{"active to suspended", SubscriptionStatusActive, SubscriptionStatusSuspended, true},
		{"suspended to active", SubscriptionStatusSuspended, SubscriptionStatusActive, true},
		{"suspended to cancelled", SubscriptionStatusSuspended, SubscriptionStatusCancelled, true},
		{"cancelled is terminal", SubscriptionStatusCancelled, SubscriptionStatusActive, false},
		{"cancelled to suspended", SubscriptionStatusCancelled, SubscriptionStatusSuspended, false},
		{"active to active", SubscriptionStatusActive, SubscriptionStatusActive, false},
		{"suspended to suspended", SubscriptionStatusSuspended, SubscriptionStatusSuspended, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
