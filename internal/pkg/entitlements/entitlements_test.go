package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "pro", want: PlanPro},
		{in: " PRO ", want: PlanPro},
		{in: "premium", want: PlanFree},
		{in: "", want: PlanFree},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestCanAddProduct(t *testing.T) {
	assert.True(t, CanAddProduct(PlanFree, 2))
	assert.False(t, CanAddProduct(PlanFree, 3))
	assert.True(t, CanAddProduct(PlanPro, 500))
}

func TestOf(t *testing.T) {
	assert.Equal(t, PlanFree, Of(nil))
	assert.Equal(t, PlanPro, Of(&models.Business{Plan: models.PlanPro}))
}

func TestPlanFeatures(t *testing.T) {
	_, webp := AllowedImageFormats(PlanFree)
	assert.False(t, webp)
	_, webp = AllowedImageFormats(PlanPro)
	assert.True(t, webp)

	assert.False(t, AllowsAnalytics(PlanFree))
	assert.True(t, AllowsAIChat(PlanPro))
	assert.True(t, ShowsVerifiedBadge(PlanPro))
}
