package controllers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/content"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/entitlements"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/storage"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/upload"
)

func HandleDashboard(c *fiber.Ctx) error {
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Dashboard] load: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load your business")
	}
	active, err := repos().Product.CountActiveByBusiness(biz.ID)
	if err != nil {
		log.Warnf("[Dashboard] product count of %s: %v", biz.ID, err)
	}

	plan := entitlements.Of(biz)
	limit := entitlements.ProductLimit(plan)
	return render(c, "dashboard", "Dashboard", fiber.Map{
		"Business":       biz,
		"StoreURL":       constants.StorefrontURL(biz.Slug()),
		"IsPro":          plan == entitlements.PlanPro,
		"ActiveProducts": active,
		"ProductLimit":   limit,
		"CanAddProduct":  entitlements.CanAddProduct(plan, active),
		"AIRemaining":    biz.AIQuotaRemaining(),
		"BillingSuccess": c.Query("billing") == "success",
	})
}

func HandleProfileEdit(c *fiber.Ctx) error {
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Profile] load: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load your business")
	}
	return render(c, "profile", "Your business profile", fiber.Map{
		"Business":   biz,
		"Onboarding": !biz.HasProfile(),
	})
}

func HandleProfileUpdate(c *fiber.Ctx) error {
	r := repos()
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[Profile] load: %v", err)
		return flashError(c, "Could not load your business", constants.ProfileRoute)
	}

	name := content.PlainText(c.FormValue("business_name"))
	if len([]rune(name)) < 2 {
		return flashError(c, "Please enter a business name", constants.ProfileRoute)
	}
	biz.BusinessName = name
	biz.Description = strings.TrimSpace(c.FormValue("description"))
	biz.Location = content.PlainText(c.FormValue("location"))
	biz.Category = content.PlainText(c.FormValue("category"))
	biz.WhatsAppNumber = strings.TrimSpace(c.FormValue("whatsapp_number"))
	biz.InstagramHandle = content.InstagramHandle(c.FormValue("instagram_handle"))

	if !biz.HasProfile() || strings.TrimSpace(c.FormValue("business_slug")) != "" {
		base := c.FormValue("business_slug")
		if strings.TrimSpace(base) == "" {
			base = name
		}
		slug, err := uniqueSlug(r.Business, base, biz.ID)
		if err != nil {
			log.Errorf("[Profile] slug for %s: %v", biz.ID, err)
			return flashError(c, "Could not save your profile", constants.ProfileRoute)
		}
		biz.BusinessSlug = &slug
	}

	if fh, err := c.FormFile("logo"); err == nil && fh.Size > 0 {
		url, err := saveUploadedImage(c.UserContext(), biz, fh.Filename, fh.Size, func() (io.ReadCloser, error) { return fh.Open() })
		if err != nil {
			return flashError(c, "Logo: "+err.Error(), constants.ProfileRoute)
		}
		biz.LogoURL = url.JPEGURL
	}

	if err := biz.Validate(); err != nil {
		return flashError(c, "Please check your input: "+err.Error(), constants.ProfileRoute)
	}
	if err := r.Business.Update(biz); err != nil {
		log.Errorf("[Profile] save %s: %v", biz.ID, err)
		return flashError(c, "Could not save your profile", constants.ProfileRoute)
	}
	return flashSuccess(c, "Profile saved", constants.DashboardRoute)
}

// uniqueSlug slugifies base and appends -2, -3, ... until no other business
// uses it.
func uniqueSlug(businesses repository.BusinessRepository, base, exceptID string) (string, error) {
	root := models.MakeSlug(base)
	candidate := root
	for i := 2; i < 1000; i++ {
		taken, err := businesses.SlugTaken(candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, i)
	}
	return "", fmt.Errorf("no free slug for %q", root)
}

func HandleAISettingsUpdate(c *fiber.Ctx) error {
	biz, err := currentBusiness(c)
	if err != nil {
		log.Errorf("[AISettings] load: %v", err)
		return flashError(c, "Could not load your business", constants.DashboardRoute)
	}
	if !entitlements.AllowsAIChat(entitlements.Of(biz)) {
		return flashError(c, "The AI assistant is part of the pro plan", constants.DashboardRoute)
	}

	biz.AIEnabled = c.FormValue("ai_enabled") == "on" || c.FormValue("ai_enabled") == "true"
	biz.AIInstructions = content.PlainText(c.FormValue("ai_instructions"))
	biz.AIWelcomeMsg = content.PlainText(c.FormValue("ai_welcome_msg"))
	if err := biz.Validate(); err != nil {
		return flashError(c, "Instructions are limited to 2000 and the welcome message to 500 characters", constants.DashboardRoute)
	}
	if err := repos().Business.Update(biz); err != nil {
		log.Errorf("[AISettings] save %s: %v", biz.ID, err)
		return flashError(c, "Could not save AI settings", constants.DashboardRoute)
	}
	return flashSuccess(c, "AI assistant settings saved", constants.DashboardRoute)
}

// saveUploadedImage reads one multipart file and stores the processed
// variants. WebP is produced for plans that include it.
func saveUploadedImage(ctx context.Context, biz *models.Business, filename string, size int64, open func() (io.ReadCloser, error)) (*imageprocessor.Stored, error) {
	if size > upload.MaxImageBytes {
		return nil, upload.ErrTooLarge
	}
	f, err := open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, upload.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}

	_, withWebP := entitlements.AllowedImageFormats(entitlements.Of(biz))
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return imageprocessor.SaveProductImage(ctx, storage.Default(), biz.ID, filename, data, withWebP)
}
