package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		v4, v6  string
	}{
		{"cloudflare v6 with forwarded v4", map[string]string{"CF-Connecting-IP": "2001:db8::1", "X-Forwarded-For": "198.51.100.7"}, "198.51.100.7", "2001:db8::1"},
		{"first forwarded wins", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9", ""},
		{"mapped v4", map[string]string{"X-Real-IP": "::ffff:192.0.2.44"}, "192.0.2.44", ""},
		{"garbage ignored", map[string]string{"X-Forwarded-For": "unknown, 2001:db8::2"}, "", "2001:db8::2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				v4, v6 := GetClientIP(c)
				return c.JSON(fiber.Map{"v4": v4, "v6": v6})
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			_, body := do(t, app, req)
			require.NotNil(t, body)
			if tc.v4 != "" {
				assert.Equal(t, tc.v4, body["v4"])
			}
			assert.Equal(t, tc.v6, body["v6"])
		})
	}
}
