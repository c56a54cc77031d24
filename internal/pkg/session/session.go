package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/cache"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

var sessionStore *session.Store

func NewSessionStore() *session.Store {
	// Sessions live in database 1, the cache uses DB 0
	storage := cache.FiberStorage(1)

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     7 * 24 * time.Hour,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

// UseStore installs an already built store, e.g. an in-memory one in tests
func UseStore(store *session.Store) {
	sessionStore = store
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// Login rotates the session id and binds it to the business
func Login(c *fiber.Ctx, businessID, email string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %v", err)
	}
	sess.Set(usercontext.KeyUserID, businessID)
	sess.Set(usercontext.KeyEmail, email)
	return sess.Save()
}

// Logout destroys the session
func Logout(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
