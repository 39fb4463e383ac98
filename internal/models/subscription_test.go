package models

import (
	"testing"
	"time"
)

func TestEffectiveTier(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want string
	}{
		{
			name: "nil subscription is free",
			sub:  nil,
			want: TierFree,
		},
		{
			name: "active premium",
			sub:  &Subscription{Tier: TierPremium, Status: SubStatusActive, CurrentPeriodEnd: future},
			want: TierPremium,
		},
		{
			name: "on hold keeps access during grace period",
			sub:  &Subscription{Tier: TierPremium, Status: SubStatusOnHold, CurrentPeriodEnd: future},
			want: TierPremium,
		},
		{
			name: "pending cancel keeps access until period end",
			sub:  &Subscription{Tier: TierPremium, Status: SubStatusPendingCancel, CurrentPeriodEnd: future},
			want: TierPremium,
		},
		{
			name: "cancelled is free",
			sub:  &Subscription{Tier: TierPremium, Status: SubStatusCancelled, CurrentPeriodEnd: future},
			want: TierFree,
		},
		{
			name: "expired period is free even while active",
			sub:  &Subscription{Tier: TierPremium, Status: SubStatusActive, CurrentPeriodEnd: past},
			want: TierFree,
		},
		{
			name: "free tier with no period never expires",
			sub:  &Subscription{Tier: TierFree, Status: SubStatusActive},
			want: TierFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.EffectiveTier(); got != tt.want {
				t.Errorf("EffectiveTier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetTierLimits(t *testing.T) {
	free := GetTierLimits(TierFree)
	if free.MaxMedications != 5 || free.ScansPerDay != 2 {
		t.Errorf("free limits = %+v, want 5 medications / 2 scans", free)
	}

	premium := GetTierLimits(TierPremium)
	if premium.MaxMedications != -1 || premium.ScansPerDay != -1 {
		t.Errorf("premium limits = %+v, want unlimited", premium)
	}

	// Unknown tiers fall back to free.
	if got := GetTierLimits("enterprise"); got != free {
		t.Errorf("unknown tier limits = %+v, want free limits", got)
	}
}

func TestGetPlanByID(t *testing.T) {
	plan := GetPlanByID("premium")
	if plan == nil {
		t.Fatal("premium plan missing")
	}
	if plan.Tier != TierPremium || plan.DodoProductID == "" {
		t.Errorf("premium plan = %+v, want premium tier with a product ID", plan)
	}

	if GetPlanByID("nonexistent") != nil {
		t.Error("unknown plan ID returned a plan")
	}
}
