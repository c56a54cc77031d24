package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Marktplatz/app/models"
	"github.com/ManuelReschke/Marktplatz/app/repository"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/database"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/session"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/testdb"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/usercontext"
	"github.com/ManuelReschke/Marktplatz/internal/pkg/viewmodel"
)

// setupDB installs a fresh database as the process-wide one.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testdb.New(t)
	database.SetDB(db)
	repository.ResetGlobalFactory(db)
	session.UseStore(fibersession.New())
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_SECRET", "controller-test-secret")
	return db
}

// newApp returns an app rendering the real templates. A non-nil owner is
// signed in on every request.
func newApp(t *testing.T, owner *models.Business) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{Views: viewmodel.NewEngine("../../views")})
	app.Use(func(c *fiber.Ctx) error {
		if owner == nil {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}
		usercontext.Set(c, usercontext.UserContext{
			UserID:       owner.ID,
			Email:        owner.Email,
			BusinessName: owner.DisplayName(),
			BusinessSlug: owner.Slug(),
			IsLoggedIn:   true,
			Plan:         owner.Plan,
		})
		return c.Next()
	})
	return app
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var raw []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	} else {
		out["_body"] = string(raw)
	}
	return resp, out
}

func reloadBusiness(t *testing.T, db *gorm.DB, id string) models.Business {
	t.Helper()
	var b models.Business
	require.NoError(t, db.First(&b, "id = ?", id).Error)
	return b
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
