package entitlements

import (
	"strings"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

type Plan string

const (
	PlanFree Plan = models.PlanFree
	PlanPro  Plan = models.PlanPro
)

// FreeProductLimit is the number of active products a free business may list.
// A downgrade keeps this many of the newest and hides the rest.
const FreeProductLimit = 3

// Normalize maps anything unknown to the free plan.
func Normalize(plan string) Plan {
	if strings.ToLower(strings.TrimSpace(plan)) == string(PlanPro) {
		return PlanPro
	}
	return PlanFree
}

// Of returns the plan of a business, free for nil.
func Of(b *models.Business) Plan {
	if b == nil {
		return PlanFree
	}
	return Normalize(b.Plan)
}

// ProductLimit returns the active product cap, or -1 for unlimited.
func ProductLimit(plan Plan) int {
	if plan == PlanPro {
		return -1
	}
	return FreeProductLimit
}

// CanAddProduct reports whether one more active product fits the plan.
func CanAddProduct(plan Plan, activeProducts int64) bool {
	limit := ProductLimit(plan)
	return limit < 0 || activeProducts < int64(limit)
}

// AllowedImageFormats returns which product image variants a plan gets.
func AllowedImageFormats(plan Plan) (jpeg, webp bool) {
	switch plan {
	case PlanPro:
		return true, true
	default:
		return true, false
	}
}

func AllowsAnalytics(plan Plan) bool { return plan == PlanPro }

func AllowsAIChat(plan Plan) bool { return plan == PlanPro }

// ShowsVerifiedBadge mirrors the plan; is_verified is written together with it.
func ShowsVerifiedBadge(plan Plan) bool { return plan == PlanPro }
