package models

import "time"

// Subscription status constants
const (
	SubStatusActive        = "active"
	SubStatusOnHold        = "on_hold"        // Payment failed, grace period
	SubStatusPendingCancel = "pending_cancel" // Will cancel at period end
	SubStatusCancelled     = "cancelled"
)

// Subscription tiers
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// TierLimits defines quotas per subscription tier. -1 means unlimited.
type TierLimits struct {
	MaxMedications int `json:"maxMedications"`
	ScansPerDay    int `json:"scansPerDay"`
}

// DefaultTierLimits provides tier configurations
var DefaultTierLimits = map[string]TierLimits{
	TierFree: {
		MaxMedications: 5,
		ScansPerDay:    2,
	},
	TierPremium: {
		MaxMedications: -1,
		ScansPerDay:    -1,
	},
}

// GetTierLimits returns the limits for a given tier
func GetTierLimits(tier string) TierLimits {
	if limits, ok := DefaultTierLimits[tier]; ok {
		return limits
	}
	return DefaultTierLimits[TierFree]
}

// Plan represents a subscription plan with pricing
type Plan struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Tier          string     `json:"tier"`
	PriceMonthly  int64      `json:"price_monthly"` // cents
	DodoProductID string     `json:"dodo_product_id"`
	Features      []string   `json:"features"`
	Limits        TierLimits `json:"limits"`
}

// AvailablePlans lists every plan the app sells
var AvailablePlans = []Plan{
	{
		ID:            "free",
		Name:          "Free",
		Tier:          TierFree,
		PriceMonthly:  0,
		DodoProductID: "",
		Features:      []string{"Up to 5 medications", "2 prescription scans per day"},
		Limits:        GetTierLimits(TierFree),
	},
	{
		ID:            "premium",
		Name:          "Premium",
		Tier:          TierPremium,
		PriceMonthly:  499, // $4.99 in cents
		DodoProductID: "pdt_medremind_premium_monthly",
		Features:      []string{"Unlimited medications", "Unlimited scans", "Refill reminders"},
		Limits:        GetTierLimits(TierPremium),
	},
}

// GetPlanByID returns a plan by its ID
func GetPlanByID(planID string) *Plan {
	for i := range AvailablePlans {
		if AvailablePlans[i].ID == planID {
			return &AvailablePlans[i]
		}
	}
	return nil
}

// Subscription tracks a user's subscription state
type Subscription struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	DodoSubscriptionID string    `json:"dodo_subscription_id,omitempty"`
	DodoCustomerID     string    `json:"dodo_customer_id,omitempty"`
	Tier               string    `json:"tier"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsActive returns true if the subscription currently grants access.
func (s *Subscription) IsActive() bool {
	switch s.Status {
	case SubStatusActive, SubStatusOnHold, SubStatusPendingCancel:
		return true
	default:
		return false
	}
}

// IsExpired returns true if the subscription period has ended.
func (s *Subscription) IsExpired() bool {
	return !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Before(time.Now())
}

// EffectiveTier resolves the tier the user should be treated as, falling back
// to free when the subscription has lapsed.
func (s *Subscription) EffectiveTier() string {
	if s == nil || !s.IsActive() || s.IsExpired() {
		return TierFree
	}
	return s.Tier
}
