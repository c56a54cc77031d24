package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/session"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the signed-in business for every request.
// Plan and profile are read from the database each time, since webhooks can
// change them between requests.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth keeps its own session store on /auth/*; do not touch ours there.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	anonymous := usercontext.UserContext{IsLoggedIn: false, IsAdmin: false}
	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	businessID, _ := sess.Get(usercontext.KeyUserID).(string)
	if businessID == "" {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	biz, err := repository.GetGlobalFactory().GetBusinessRepository().GetByID(businessID)
	if err != nil {
		// Account removed or DB hiccup: treat as signed out for this request.
		log.Warnf("[UserContext] could not load business %s: %v", businessID, err)
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	usercontext.Set(c, usercontext.UserContext{
		UserID:       biz.ID,
		Email:        biz.Email,
		BusinessName: biz.DisplayName(),
		BusinessSlug: biz.Slug(),
		IsLoggedIn:   true,
		IsAdmin:      biz.Role == models.ROLE_ADMIN,
		Plan:         biz.Plan,
	})
	return c.Next()
}
