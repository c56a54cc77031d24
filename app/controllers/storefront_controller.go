package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/metrics"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/upvote"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

const storefrontReviewLimit = 20

func HandleStorefront(c *fiber.Ctx) error {
	r := repos()
	biz, err := r.Business.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return renderNotFound(c)
		}
		log.Errorf("[Storefront] load %s: %v", c.Params("slug"), err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load business")
	}

	var (
		products []models.Product
		reviews  []models.Review
		stats    *repository.ReviewStats
	)
	var g errgroup.Group
	g.Go(func() (err error) {
		products, err = r.Product.ListByBusiness(biz.ID, true)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = r.Review.ListByBusiness(biz.ID, true, storefrontReviewLimit)
		return err
	})
	g.Go(func() (err error) {
		stats, err = r.Review.StatsByBusiness(biz.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Errorf("[Storefront] load details of %s: %v", biz.ID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load business")
	}

	recordPageView(c, r.PageView, biz.ID)

	view := viewmodel.Storefront{
		Business:        viewmodel.NewBusinessCard(biz),
		Slug:            biz.Slug(),
		DescriptionHTML: content.RenderMarkdown(biz.Description),
		ReviewCount:     stats.Count,
		AverageRating:   viewmodel.FormatRating(stats.AverageRating, stats.Count),
		WhatsAppLink:    content.WhatsAppLink(biz.WhatsAppNumber, content.OrderMessage(biz.DisplayName(), "", 0)),
		InstagramLink:   content.InstagramLink(biz.InstagramHandle),
		AlreadyUpvoted:  !upvote.CanUpvote(upvoteCodec().Decode(c.Cookies(upvote.CookieName)), biz.ID),
		ChatEnabled:     biz.IsPro() && biz.AIEnabled,
		ChatWelcome:     biz.AIWelcomeMsg,
		HCaptchaSiteKey: hcaptcha.SiteKey(),
	}
	for i := range products {
		view.Products = append(view.Products, viewmodel.NewProductCard(biz, &products[i]))
	}
	for i := range reviews {
		view.Reviews = append(view.Reviews, viewmodel.NewReviewView(&reviews[i]))
	}
	if view.ChatWelcome == "" {
		view.ChatWelcome = "Hi! Ask me anything about " + biz.DisplayName() + "."
	}

	return render(c, "storefront", biz.DisplayName(), fiber.Map{
		"Store": view,
		"OpenGraph": &viewmodel.OpenGraph{
			Title:       biz.DisplayName(),
			Description: view.Business.Excerpt,
			URL:         env.GetEnv("PUBLIC_DOMAIN", "") + constants.StorefrontURL(biz.Slug()),
			Image:       view.Business.LogoURL,
		},
	})
}

// recordPageView appends one view row. A failed insert never blocks the page.
func recordPageView(c *fiber.Ctx, views repository.PageViewRepository, businessID string) {
	ipv4, ipv6 := GetClientIP(c)
	pv := &models.PageView{
		BusinessID: businessID,
		Referrer:   content.Truncate(c.Get(fiber.HeaderReferer), 490),
		IPv4:       truncateBytes(ipv4, 15),
		IPv6:       truncateBytes(ipv6, 45),
		UserAgent:  content.Truncate(c.Get(fiber.HeaderUserAgent), 490),
	}
	if err := views.Create(pv); err != nil {
		log.Warnf("[Storefront] page view for %s not recorded: %v", businessID, err)
		return
	}
	metrics.Default().PageView()
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func renderNotFound(c *fiber.Ctx) error {
	c.Status(fiber.StatusNotFound)
	return render(c, "not_found", "Not found", nil)
}
