package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/testdb"
)

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestStorefrontRecordsPageView(t *testing.T) {
	db := setupDB(t)
	biz := testdb.Business(t, db, func(b *models.Business) {
		b.Description = "Fresh **sourdough** every morning"
		b.WhatsAppNumber = "+234 801 234 5678"
	})
	require.NoError(t, db.Create(&models.Product{BusinessID: biz.ID, Name: "Rye loaf", Price: 1500, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Review{BusinessID: biz.ID, AuthorName: "Ada", Rating: 5, IsVerified: true}).Error)
	require.NoError(t, db.Create(&models.Review{BusinessID: biz.ID, AuthorName: "Hidden", Rating: 1, IsVerified: false}).Error)

	app := newApp(t, nil)
	app.Get("/b/:slug", HandleStorefront)

	req := httptest.NewRequest(http.MethodGet, "/b/"+biz.Slug(), nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	resp, body := do(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := body["_body"].(string)
	assert.Contains(t, page, biz.BusinessName)
	assert.Contains(t, page, "<strong>sourdough</strong>")
	assert.Contains(t, page, "Rye loaf")
	assert.Contains(t, page, "1,500")
	assert.Contains(t, page, "https://wa.me/2348012345678")
	assert.Contains(t, page, "Ada")
	assert.NotContains(t, page, "Hidden")

	var views []models.PageView
	require.NoError(t, db.Find(&views).Error)
	require.Len(t, views, 1)
	assert.Equal(t, biz.ID, views[0].BusinessID)
	assert.Equal(t, "203.0.113.9", views[0].IPv4)
}

func TestStorefrontUnknownSlug(t *testing.T) {
	setupDB(t)
	app := newApp(t, nil)
	app.Get("/b/:slug", HandleStorefront)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/b/nobody-here", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewSubmit(t *testing.T) {
	db := setupDB(t)
	biz := testdb.Business(t, db, nil)

	app := newApp(t, nil)
	app.Post("/b/:slug/reviews", HandleReviewSubmit)

	resp, _ := do(t, app, formRequest("/b/"+biz.Slug()+"/reviews", url.Values{
		"author_name": {"Chinedu"},
		"rating":      {"4"},
		"comment":     {"<b>Great</b> bread"},
	}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/b/"+biz.Slug()+"#reviews", resp.Header.Get("Location"))

	var review models.Review
	require.NoError(t, db.First(&review).Error)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, "Great bread", review.Comment)
	assert.True(t, review.IsVerified)

	resp, _ = do(t, app, formRequest("/b/"+biz.Slug()+"/reviews", url.Values{
		"author_name": {"Chinedu"},
		"rating":      {"9"},
	}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, int64(1), count(t, db, &models.Review{}))
}

func TestReviewNeedsApprovalWhenConfigured(t *testing.T) {
	db := setupDB(t)
	t.Setenv("REVIEWS_AUTO_APPROVE", "false")
	biz := testdb.Business(t, db, nil)

	app := newApp(t, nil)
	app.Post("/b/:slug/reviews", HandleReviewSubmit)

	do(t, app, formRequest("/b/"+biz.Slug()+"/reviews", url.Values{"author_name": {"Ife"}, "rating": {"5"}}))

	var review models.Review
	require.NoError(t, db.First(&review).Error)
	assert.False(t, review.IsVerified)
}

func TestHomeAndDirectoryRender(t *testing.T) {
	db := setupDB(t)
	testdb.Business(t, db, func(b *models.Business) {
		b.BusinessName = "Lagos Print Shop"
		b.Category = "Printing"
		b.Upvotes = 3
	})

	app := newApp(t, nil)
	app.Get("/", HandleHome)
	app.Get("/directory", HandleDirectory)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["_body"], "Lagos Print Shop")

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/directory?q=print&category=Printing", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["_body"], "Lagos Print Shop")

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/directory?q=bakery", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["_body"], "No businesses match")
}

func TestProfileOnboardingCreatesSlug(t *testing.T) {
	db := setupDB(t)
	owner := testdb.Business(t, db, func(b *models.Business) { b.BusinessSlug = nil })
	testdb.Business(t, db, func(b *models.Business) {
		s := "mama-put"
		b.BusinessSlug = &s
	})

	app := newApp(t, owner)
	app.Post("/dashboard/profile", HandleProfileUpdate)

	resp, _ := do(t, app, formRequest("/dashboard/profile", url.Values{
		"business_name":    {"Mama Put"},
		"instagram_handle": {"@mamaput"},
		"whatsapp_number":  {"+2348000000000"},
	}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	stored := reloadBusiness(t, db, owner.ID)
	assert.Equal(t, "mama-put-2", stored.Slug())
	assert.Equal(t, "mamaput", stored.InstagramHandle)
}

func TestProductLimitOnFreePlan(t *testing.T) {
	db := setupDB(t)
	owner := testdb.Business(t, db, nil)

	app := newApp(t, owner)
	app.Post("/dashboard/products", HandleProductCreate)

	for i := 0; i < 4; i++ {
		resp, _ := do(t, app, formRequest("/dashboard/products", url.Values{
			"name":  {"Item " + string(rune('A'+i))},
			"price": {"100"},
		}))
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	var n int64
	require.NoError(t, db.Model(&models.Product{}).Where("business_id = ?", owner.ID).Count(&n).Error)
	assert.Equal(t, int64(3), n)

	require.NoError(t, db.Model(&models.Business{}).Where("id = ?", owner.ID).Update("plan", models.PlanPro).Error)
	resp, _ := do(t, app, formRequest("/dashboard/products", url.Values{"name": {"Item D"}, "price": {"100"}}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, db.Model(&models.Product{}).Where("business_id = ?", owner.ID).Count(&n).Error)
	assert.Equal(t, int64(4), n)
}

func TestProductOfAnotherBusinessIsHidden(t *testing.T) {
	db := setupDB(t)
	owner := testdb.Business(t, db, nil)
	other := testdb.Business(t, db, nil)
	p := &models.Product{BusinessID: other.ID, Name: "Not yours", IsActive: true}
	require.NoError(t, db.Create(p).Error)

	app := newApp(t, owner)
	app.Post("/dashboard/products/:id/delete", HandleProductDelete)

	resp, _ := do(t, app, formRequest(fmt.Sprintf("/dashboard/products/%d/delete", p.ID), url.Values{}))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, int64(1), count(t, db, &models.Product{}))
}

func TestHiddenProductCanBeReenabledAfterUpgrade(t *testing.T) {
	db := setupDB(t)
	owner := testdb.Business(t, db, nil)
	var ids []uint
	for i := 0; i < 4; i++ {
		p := &models.Product{BusinessID: owner.ID, Name: "Item " + string(rune('A'+i)), Price: 100, IsActive: true}
		require.NoError(t, db.Create(p).Error)
		ids = append(ids, p.ID)
	}
	// the downgrade left the oldest one hidden
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", ids[0]).UpdateColumn("is_active", false).Error)

	app := newApp(t, owner)
	app.Post("/dashboard/products/:id", HandleProductUpdate)
	target := fmt.Sprintf("/dashboard/products/%d", ids[0])
	form := url.Values{"name": {"Item A"}, "price": {"100"}, "is_active": {"on"}}

	resp, _ := do(t, app, formRequest(target, form))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	var p models.Product
	require.NoError(t, db.First(&p, ids[0]).Error)
	assert.False(t, p.IsActive)

	require.NoError(t, db.Model(&models.Business{}).Where("id = ?", owner.ID).Update("plan", models.PlanPro).Error)
	resp, _ = do(t, app, formRequest(target, form))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, db.First(&p, ids[0]).Error)
	assert.True(t, p.IsActive)
}

func TestAISettingsRequirePro(t *testing.T) {
	db := setupDB(t)
	free := testdb.Business(t, db, nil)

	app := newApp(t, free)
	app.Post("/dashboard/ai", HandleAISettingsUpdate)
	do(t, app, formRequest("/dashboard/ai", url.Values{"ai_enabled": {"on"}}))
	assert.False(t, reloadBusiness(t, db, free.ID).AIEnabled)

	pro := testdb.Business(t, db, func(b *models.Business) { b.Plan = models.PlanPro })
	app = newApp(t, pro)
	app.Post("/dashboard/ai", HandleAISettingsUpdate)
	do(t, app, formRequest("/dashboard/ai", url.Values{
		"ai_enabled":      {"on"},
		"ai_instructions": {"We deliver within Lagos only."},
	}))
	stored := reloadBusiness(t, db, pro.ID)
	assert.True(t, stored.AIEnabled)
	assert.Equal(t, "We deliver within Lagos only.", stored.AIInstructions)
}

func TestAnalyticsCounts(t *testing.T) {
	db := setupDB(t)
	biz := testdb.Business(t, db, func(b *models.Business) { b.Plan = models.PlanPro })
	now := time.Now()
	for _, age := range []time.Duration{time.Hour, 3 * 24 * time.Hour, 30 * 24 * time.Hour} {
		require.NoError(t, db.Create(&models.PageView{BusinessID: biz.ID, CreatedAt: now.Add(-age)}).Error)
	}

	a, err := loadAnalytics(biz.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.TotalViews)
	assert.Equal(t, int64(2), a.ViewsLastWeek)
	assert.Equal(t, int64(1), a.ViewsLastDay)
	assert.Equal(t, int64(0), a.Reviews.Count)

	s, ok := scoreOf(biz.ID, now)
	require.True(t, ok)
	assert.Equal(t, 1, s.RecentViews)
}
