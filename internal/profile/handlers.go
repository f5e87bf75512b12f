package profile

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/aldoetobex/storefront-web/internal/auth"
	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/internal/storage"
)

const avatarTTL = 10 * time.Minute

type Handler struct {
	store storage.ObjectStore
	pages *inertia.Renderer
	log   *logrus.Logger
}

func NewHandler(store storage.ObjectStore, pages *inertia.Renderer, log *logrus.Logger) *Handler {
	return &Handler{store: store, pages: pages, log: log}
}

// Show renders the signed-in user's profile. The avatar falls back to
// initials on the client when no signed URL can be produced.
func (h *Handler) Show(c *fiber.Ctx) error {
	u := auth.CurrentUser(c)
	if u == nil {
		return fiber.ErrUnauthorized
	}

	avatar := ""
	if u.AvatarKey != "" && h.store != nil {
		url, err := h.store.SignedURL(c.UserContext(), u.AvatarKey, avatarTTL)
		if err != nil {
			h.log.WithError(err).WithField("user_id", u.ID).Warn("avatar sign failed")
		} else {
			avatar = url
		}
	}

	return h.pages.Render(c, "Profile/Show", fiber.Map{
		"profile":     auth.PublicUser(u, avatar),
		"memberSince": u.CreatedAt.Format("January 2006"),
	})
}
