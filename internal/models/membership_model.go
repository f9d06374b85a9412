package models

// Membership plan identifiers.
const (
	PlanFree      = "free"
	PlanBasic     = "basic"
	PlanPremium   = "premium"
	PlanUnlimited = "unlimited"
)

// UnlimitedPosts marks a plan without a monthly allowance.
const UnlimitedPosts = -1

// MembershipPlan is static reference data; it is never persisted.
type MembershipPlan struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PostsPerMonth int     `json:"postsPerMonth"`
	Price         float64 `json:"price"`
}

// Unlimited reports whether the plan has no monthly allowance.
func (p MembershipPlan) Unlimited() bool {
	return p.PostsPerMonth == UnlimitedPosts
}
