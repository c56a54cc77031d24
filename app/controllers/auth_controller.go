package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/constants"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/session"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

type loginProvider struct {
	Name  string
	Label string
}

// configuredProviders lists the OAuth providers with credentials.
func configuredProviders() []loginProvider {
	var out []loginProvider
	if env.GetEnv("GOOGLE_KEY", "") != "" {
		out = append(out, loginProvider{Name: "google", Label: "Google"})
	}
	if env.GetEnv("FACEBOOK_KEY", "") != "" {
		out = append(out, loginProvider{Name: "facebook", Label: "Facebook"})
	}
	return out
}

func HandleAuthLogin(c *fiber.Ctx) error {
	if usercontext.IsLoggedIn(c) {
		return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
	}
	return render(c, "login", "Sign in", fiber.Map{
		"Providers": configuredProviders(),
	})
}

func HandleAuthLogout(c *fiber.Ctx) error {
	if err := session.Logout(c); err != nil {
		log.Warnf("[Auth] logout: %v", err)
	}
	return flashSuccess(c, "You are signed out. See you soon!", "/")
}

// HandleOAuthCallback completes the provider flow and signs the owner in.
// First sign-ins create the business account and continue to onboarding.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[Auth] OAuth failed: %v", err)
		return flashError(c, "Sign in failed, please try again", constants.LoginRoute)
	}

	biz, err := signInWithProvider(database.GetDB(), u, time.Now())
	if err != nil {
		log.Errorf("[Auth] %s sign in for %s: %v", u.Provider, u.Email, err)
		return flashError(c, "Sign in failed, please try again", constants.LoginRoute)
	}

	if err := session.Login(c, biz.ID, biz.Email); err != nil {
		log.Errorf("[Auth] session for %s: %v", biz.ID, err)
		return flashError(c, "Sign in failed, please try again", constants.LoginRoute)
	}

	to := constants.DashboardRoute
	if !biz.HasProfile() {
		to = constants.ProfileRoute
	}
	c.Set("HX-Redirect", to)
	return c.Redirect(to, fiber.StatusSeeOther)
}

// signInWithProvider resolves the business behind an external identity,
// linking by email and creating the account when neither exists.
func signInWithProvider(db *gorm.DB, u goth.User, now time.Time) (*models.Business, error) {
	var biz models.Business
	err := db.Transaction(func(tx *gorm.DB) error {
		var pa models.ProviderAccount
		res := tx.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&pa)
		switch {
		case res.Error == nil:
			if err := tx.First(&biz, "id = ?", pa.BusinessID).Error; err != nil {
				return fmt.Errorf("linked business %s: %w", pa.BusinessID, err)
			}
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			email := strings.ToLower(strings.TrimSpace(u.Email))
			if email == "" {
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			err := tx.Where("email = ?", email).First(&biz).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				biz = models.Business{Email: email}
				err = tx.Create(&biz).Error
			}
			if err != nil {
				return err
			}
			pa = models.ProviderAccount{BusinessID: biz.ID, Provider: u.Provider, ProviderUserID: u.UserID}
			if !u.ExpiresAt.IsZero() {
				t := u.ExpiresAt
				pa.ExpiresAt = &t
			}
			if err := tx.Create(&pa).Error; err != nil {
				return fmt.Errorf("link provider: %w", err)
			}
		default:
			return res.Error
		}

		biz.LastLoginAt = &now
		return tx.Model(&biz).UpdateColumn("last_login_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &biz, nil
}
