package core

import "quillpost-backend-go/internal/models"

var membershipPlans = []models.MembershipPlan{
	{ID: models.PlanFree, Name: "Free", PostsPerMonth: 3, Price: 0},
	{ID: models.PlanBasic, Name: "Basic", PostsPerMonth: 10, Price: 9.99},
	{ID: models.PlanPremium, Name: "Premium", PostsPerMonth: 50, Price: 19.99},
	{ID: models.PlanUnlimited, Name: "Unlimited", PostsPerMonth: models.UnlimitedPosts, Price: 49.99},
}

// MembershipPlans returns a copy of the tier catalog, cheapest first.
func MembershipPlans() []models.MembershipPlan {
	out := make([]models.MembershipPlan, len(membershipPlans))
	copy(out, membershipPlans)
	return out
}

// LookupPlan finds a tier by ID.
func LookupPlan(id string) (models.MembershipPlan, bool) {
	for _, p := range membershipPlans {
		if p.ID == id {
			return p, true
		}
	}
	return models.MembershipPlan{}, false
}

// PlanOrDefault returns the tier for id, falling back to the free tier.
func PlanOrDefault(id string) models.MembershipPlan {
	if p, ok := LookupPlan(id); ok {
		return p
	}
	return membershipPlans[0]
}
