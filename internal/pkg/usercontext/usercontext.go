package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the signed-in business owner for a request
type UserContext struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
	BusinessSlug string `json:"business_slug"`
	IsLoggedIn   bool   `json:"is_logged_in"`
	IsAdmin      bool   `json:"is_admin"`
	Plan         string `json:"plan"`
}

// HasProfile reports whether onboarding created a storefront
func (u UserContext) HasProfile() bool {
	return u.BusinessSlug != ""
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}

// Set stores the context and the legacy per-key locals
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(LocalsKey, u)
	c.Locals(KeyFromProtected, u.IsLoggedIn)
	c.Locals(KeyIsAdmin, u.IsAdmin)
	if u.IsLoggedIn {
		c.Locals(KeyUserID, u.UserID)
	}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current business ID, or "" if not logged in
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}
