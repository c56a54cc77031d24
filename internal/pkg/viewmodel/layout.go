package viewmodel

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
)

type Layout struct {
	Page          string
	Title         string
	FromProtected bool
	IsError       bool
	Msg           fiber.Map
	User          usercontext.UserContext
	CSRFToken     string
	OGViewModel   *OpenGraph
}

// OpenGraph feeds the og:* meta tags of shareable pages.
type OpenGraph struct {
	Title       string
	Description string
	URL         string
	Image       string
}
