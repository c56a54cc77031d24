package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/hcaptcha"
)

// reviewsAutoApprove publishes new reviews immediately unless
// REVIEWS_AUTO_APPROVE=false.
func reviewsAutoApprove() bool {
	return env.GetEnvBool("REVIEWS_AUTO_APPROVE", true)
}

func HandleReviewSubmit(c *fiber.Ctx) error {
	slug := c.Params("slug")
	back := constants.StorefrontURL(slug) + "#reviews"

	biz, err := repos().Business.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return renderNotFound(c)
		}
		log.Errorf("[Review] load %s: %v", slug, err)
		return flashError(c, "Something went wrong, please try again", back)
	}

	if hcaptcha.Enabled() {
		ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
		ok, err := hcaptcha.Verify(ctx, c.FormValue("h-captcha-response"))
		cancel()
		if err != nil || !ok {
			return flashError(c, "Please complete the captcha", back)
		}
	}

	rating, _ := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	review := &models.Review{
		BusinessID: biz.ID,
		AuthorName: content.PlainText(c.FormValue("author_name")),
		Rating:     rating,
		Comment:    content.PlainText(c.FormValue("comment")),
		IsVerified: reviewsAutoApprove(),
	}
	if err := review.Validate(); err != nil {
		return flashError(c, "Please enter your name and a rating from 1 to 5", back)
	}

	if err := repos().Review.Create(review); err != nil {
		log.Errorf("[Review] store for %s: %v", biz.ID, err)
		return flashError(c, "Your review could not be saved", back)
	}

	msg := "Thank you for your review!"
	if !review.IsVerified {
		msg = "Thank you! Your review will appear after approval."
	}
	return flashSuccess(c, msg, back)
}
