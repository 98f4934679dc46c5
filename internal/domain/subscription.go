package domain

import "time"

// DefaultSubscriptionDays is the activation window the product has always used.
const DefaultSubscriptionDays = 90

// SubscriptionPolicy decides when a subscription that starts at start ends.
type SubscriptionPolicy interface {
	End(start time.Time, plan SubscriptionPlan) time.Time
}

// FixedWindow ignores the plan and grants the same number of days to everyone.
type FixedWindow struct {
	Days int
}

func (w FixedWindow) End(start time.Time, _ SubscriptionPlan) time.Time {
	days := w.Days
	if days <= 0 {
		days = DefaultSubscriptionDays
	}
	return start.Add(time.Duration(days) * 24 * time.Hour)
}

// PlanWindow derives the window from the plan's duration in months. Plans
// without a positive duration fall back to Fallback.
type PlanWindow struct {
	Fallback FixedWindow
}

func (w PlanWindow) End(start time.Time, plan SubscriptionPlan) time.Time {
	if plan.DurationMonths <= 0 {
		return w.Fallback.End(start, plan)
	}
	return start.AddDate(0, plan.DurationMonths, 0)
}
