package banners

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/internal/storage"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

const (
	// PropBanner is the page prop carrying the active banner of a placement.
	PropBanner = "banner"

	maxImageSize = 5 * 1024 * 1024
	signedTTL    = 10 * time.Minute
)

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// BannerRequest is the text part of POST /admin/banners (multipart).
type BannerRequest struct {
	Placement string `form:"placement" json:"placement" validate:"required,slug,max=40"`
	Title     string `form:"title" json:"title" validate:"required,max=120"`
	Body      string `form:"body" json:"body" validate:"max=500"`
	Href      string `form:"href" json:"href" validate:"omitempty,max=500"`
}

type Handler struct {
	db    *gorm.DB
	store storage.ObjectStore
	pages *inertia.Renderer
	log   *logrus.Logger
}

func NewHandler(db *gorm.DB, store storage.ObjectStore, pages *inertia.Renderer, log *logrus.Logger) *Handler {
	return &Handler{db: db, store: store, pages: pages, log: log}
}

// Store uploads a banner image and makes it the active banner of its placement.
// Older banners of the same placement are removed along with their images.
func (h *Handler) Store(c *fiber.Ctx) error {
	if h.store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "banner storage is not configured")
	}

	var in BannerRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
	}
	in.Placement = strings.TrimSpace(in.Placement)
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return validation.Fields(c, map[string]string{"image": "This field is required"})
	}
	if fh.Size <= 0 {
		return validation.Fields(c, map[string]string{"image": "Empty file"})
	}
	if fh.Size > maxImageSize {
		return validation.Fields(c, map[string]string{"image": "Max 5MB per image"})
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if !allowedTypes[ct] {
		return validation.Fields(c, map[string]string{"image": "Only PNG, JPEG or WebP images are allowed"})
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.ErrBadRequest
	}
	defer f.Close()

	key := storage.BannerKey(in.Placement, fh.Filename)
	if err := h.store.Upload(c.UserContext(), key, f, ct); err != nil {
		h.log.WithError(err).WithField("key", key).Error("banner upload failed")
		return fiber.NewError(fiber.StatusBadGateway, "upload failed")
	}

	rec := models.Banner{
		Placement: in.Placement,
		Title:     strings.TrimSpace(in.Title),
		Body:      strings.TrimSpace(in.Body),
		Href:      strings.TrimSpace(in.Href),
		ImageKey:  key,
		Mime:      ct,
		Active:    true,
	}

	var stale []string
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var old []models.Banner
		if err := tx.Where("placement = ?", in.Placement).Find(&old).Error; err != nil {
			return err
		}
		for _, b := range old {
			stale = append(stale, b.ImageKey)
		}
		if len(old) > 0 {
			if err := tx.Where("placement = ?", in.Placement).Delete(&models.Banner{}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		// roll the upload back so the bucket does not collect orphans
		_ = h.store.Delete(c.UserContext(), key)
		return fiber.ErrInternalServerError
	}

	// Best-effort: the rows are gone already.
	if err := h.store.BulkDelete(c.UserContext(), stale); err != nil {
		h.log.WithError(err).WithField("keys", stale).Warn("stale banner images not removed")
	}

	if err := h.pages.Flash(c, flash.KindSuccess, "Banner published."); err != nil {
		return err
	}
	return h.pages.Back(c, "/admin/categories")
}

// Share attaches the active banner of placement to every rendered page.
// Storage or lookup failures leave the slot empty instead of failing the page.
func (h *Handler) Share(placement string) inertia.SharedFunc {
	return func(c *fiber.Ctx, props page.Props) error {
		if h.store == nil {
			return nil
		}
		var b models.Banner
		err := h.db.WithContext(c.UserContext()).
			Where("placement = ? AND active = ?", placement, true).
			Order("created_at DESC").
			First(&b).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			h.log.WithError(err).Warn("banner lookup failed")
			return nil
		}

		url, err := h.store.SignedURL(c.UserContext(), b.ImageKey, signedTTL)
		if err != nil {
			h.log.WithError(err).WithField("banner_id", b.ID).Warn("banner sign failed")
			return nil
		}
		return props.Set(PropBanner, page.Banner{
			ID:       b.ID,
			Title:    b.Title,
			Body:     b.Body,
			Href:     b.Href,
			ImageURL: url,
		})
	}
}
