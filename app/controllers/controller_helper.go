package controllers

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

const mainLayout = "layouts/main"

func repos() *repository.Repositories {
	return repository.GetGlobalRepositories()
}

// render wraps page data with the layout view model.
func render(c *fiber.Ctx, view, title string, data fiber.Map) error {
	uc := usercontext.GetUserContext(c)
	csrfToken, _ := c.Locals("csrf").(string)
	if data == nil {
		data = fiber.Map{}
	}
	og, _ := data["OpenGraph"].(*viewmodel.OpenGraph)
	data["Layout"] = viewmodel.Layout{
		Page:          view,
		Title:         title,
		FromProtected: uc.IsLoggedIn,
		Msg:           flash.Get(c),
		User:          uc,
		CSRFToken:     csrfToken,
		OGViewModel:   og,
	}
	return c.Render(view, data, mainLayout)
}

// jsonError writes the {error} envelope used by every JSON endpoint.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func jsonErrorCode(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "code": code})
}

func flashError(c *fiber.Ctx, message, to string) error {
	return flash.WithError(c, fiber.Map{"type": "error", "message": message}).Redirect(to, fiber.StatusSeeOther)
}

func flashSuccess(c *fiber.Ctx, message, to string) error {
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": message}).Redirect(to, fiber.StatusSeeOther)
}

// currentBusiness loads the signed-in owner's business row.
func currentBusiness(c *fiber.Ctx) (*models.Business, error) {
	return repos().Business.GetByID(usercontext.GetUserID(c))
}

// GetClientIP returns the first IPv4 and the first IPv6 address found in
// CF-Connecting-IP, X-Forwarded-For, X-Real-IP and finally the socket
// address, in that order. Either may be empty.
func GetClientIP(c *fiber.Ctx) (ipv4 string, ipv6 string) {
	candidates := []string{c.Get("CF-Connecting-IP")}
	candidates = append(candidates, strings.Split(c.Get(fiber.HeaderXForwardedFor), ",")...)
	candidates = append(candidates, c.Get("X-Real-IP"), c.IP())

	for _, raw := range candidates {
		ip := net.ParseIP(strings.TrimSpace(raw))
		if ip == nil || ip.IsUnspecified() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			// covers ::ffff:a.b.c.d as well
			if ipv4 == "" {
				ipv4 = v4.String()
			}
		} else if ipv6 == "" {
			ipv6 = ip.String()
		}
		if ipv4 != "" && ipv6 != "" {
			break
		}
	}
	return ipv4, ipv6
}
