package viewmodel

import (
	"strings"

	"github.com/gofiber/template/html/v2"
)

// NewEngine loads the templates below dir and registers the view helpers.
func NewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("price", FormatPrice)
	engine.AddFunc("stars", func(n int) string {
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
	})
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	return engine
}
