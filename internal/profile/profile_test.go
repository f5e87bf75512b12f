package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

type signer struct{ fail bool }

func (s signer) Upload(context.Context, string, io.Reader, string) error { return nil }
func (s signer) Delete(context.Context, string) error                     { return nil }
func (s signer) BulkDelete(context.Context, []string) error               { return nil }
func (s signer) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.fail {
		return "", errors.New("boom")
	}
	return "https://cdn.test/" + key, nil
}

func render(t *testing.T, h *Handler, u *models.User) (int, page.Props) {
	t.Helper()
	app := fiber.New()
	app.Get("/profile", func(c *fiber.Ctx) error {
		if u != nil {
			c.Locals("user", u)
		}
		return h.Show(c)
	})
	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set(page.HeaderPage, "true")
	res, err := app.Test(req)
	require.NoError(t, err)
	if res.StatusCode != fiber.StatusOK {
		return res.StatusCode, nil
	}
	var p page.Page
	require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
	assert.Equal(t, "Profile/Show", p.Component)
	return res.StatusCode, p.Props
}

func TestShow(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	pages := inertia.New(inertia.Config{Version: "1", Store: session.New()})
	vs := models.VendorApproved
	u := &models.User{
		ID: uuid.New(), Name: "Ana", Email: "ana@shop.test",
		Role: models.RoleVendor, VendorStatus: &vs, AvatarKey: "avatars/ana.png",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	code, _ := render(t, NewHandler(nil, pages, log), nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, props := render(t, NewHandler(signer{}, pages, log), u)
	require.Equal(t, fiber.StatusOK, code)
	var got page.User
	_, err := props.Decode("profile", &got)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/ana.png", got.AvatarURL)
	assert.Equal(t, models.VendorApproved, *got.VendorStatus)

	var since string
	_, _ = props.Decode("memberSince", &since)
	assert.Equal(t, "March 2024", since)

	_, props = render(t, NewHandler(signer{fail: true}, pages, log), u)
	got = page.User{}
	_, err = props.Decode("profile", &got)
	require.NoError(t, err)
	assert.Empty(t, got.AvatarURL)
}
