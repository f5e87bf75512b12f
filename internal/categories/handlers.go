package categories

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/internal/auth"
	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
	"github.com/aldoetobex/storefront-web/pkg/sanitize"
	"github.com/aldoetobex/storefront-web/pkg/utils"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

// maxDepth bounds the parent walk when checking for cycles.
const maxDepth = 32

// ===== DTOs =====

// CategoryRequest is the body of POST /admin/categories and PUT /admin/categories/:id.
// parent_id is null for a top-level category.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=80"`
	Slug        string  `json:"slug" validate:"omitempty,max=80,slug"`
	Description string  `json:"description" validate:"max=2000"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	IsActive    *bool   `json:"is_active"`
}

type Handler struct {
	db    *gorm.DB
	pages *inertia.Renderer
	log   *logrus.Logger
}

func NewHandler(db *gorm.DB, pages *inertia.Renderer, log *logrus.Logger) *Handler {
	return &Handler{db: db, pages: pages, log: log}
}

func parsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return
}

func toDTO(cat models.Category) page.Category {
	out := page.Category{
		ID:          cat.ID,
		Name:        cat.Name,
		Slug:        cat.Slug,
		Description: cat.Description,
		ParentID:    cat.ParentID,
		IsActive:    cat.IsActive,
	}
	if cat.Parent != nil {
		out.ParentName = cat.Parent.Name
	}
	return out
}

// Index lists categories (paginated, newest first).
func (h *Handler) Index(c *fiber.Ctx) error {
	p, size := parsePage(c)

	var total int64
	if err := h.db.WithContext(c.UserContext()).Model(&models.Category{}).Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var rows []models.Category
	if err := h.db.WithContext(c.UserContext()).
		Preload("Parent").
		Order("created_at DESC").
		Offset((p - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	items := make([]page.Category, 0, len(rows))
	for _, r := range rows {
		dto := toDTO(r)
		dto.Description = sanitize.Summary(dto.Description, 120)
		items = append(items, dto)
	}

	return h.pages.Render(c, "Admin/Categories/Index", fiber.Map{
		"categories": page.Paginated[page.Category]{
			Page: p, PageSize: size, Total: total,
			Pages: int(math.Ceil(float64(total) / float64(size))),
			Items: items, // always [] when empty
		},
	})
}

// Create renders the empty category form.
func (h *Handler) Create(c *fiber.Ctx) error {
	opts, err := h.parentOptions(c, nil)
	if err != nil {
		return err
	}
	return h.pages.Render(c, "Admin/Categories/Create", fiber.Map{"parents": opts})
}

// Edit renders the form for an existing category.
func (h *Handler) Edit(c *fiber.Ctx) error {
	cat, err := h.find(c, c.Params("id"))
	if err != nil {
		return err
	}
	opts, err := h.parentOptions(c, &cat.ID)
	if err != nil {
		return err
	}
	return h.pages.Render(c, "Admin/Categories/Edit", fiber.Map{
		"category": toDTO(cat),
		"parents":  opts,
	})
}

// Store creates a category.
func (h *Handler) Store(c *fiber.Ctx) error {
	in, parentID, ok, err := h.parseRequest(c, nil)
	if !ok || err != nil {
		return err
	}

	cat := models.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
		ParentID:    parentID,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&cat).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	// gorm skips zero-value fields that carry a default; persist an explicit false.
	if !cat.IsActive {
		if err := h.db.WithContext(c.UserContext()).Model(&cat).Update("is_active", false).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}

	h.audit(c, cat.ID, "created", cat.Name)
	if err := h.pages.Flash(c, flash.KindSuccess, "Category created."); err != nil {
		return err
	}
	return h.pages.Redirect(c, "/admin/categories")
}

// Update saves changes to an existing category.
func (h *Handler) Update(c *fiber.Ctx) error {
	cat, err := h.find(c, c.Params("id"))
	if err != nil {
		return err
	}

	in, parentID, ok, err := h.parseRequest(c, &cat.ID)
	if !ok || err != nil {
		return err
	}

	updates := map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"slug":        in.Slug,
		"description": strings.TrimSpace(in.Description),
		"parent_id":   parentID,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := h.db.WithContext(c.UserContext()).Model(&cat).Updates(updates).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	h.audit(c, cat.ID, "updated", in.Name)
	if err := h.pages.Flash(c, flash.KindSuccess, "Category updated."); err != nil {
		return err
	}
	return h.pages.Redirect(c, "/admin/categories")
}

/* =============================== helpers =============================== */

// parseRequest binds and validates the body. ok is false when a response
// (422 or error) has already been produced.
func (h *Handler) parseRequest(c *fiber.Ctx, self *uuid.UUID) (CategoryRequest, *uuid.UUID, bool, error) {
	var in CategoryRequest
	if err := c.BodyParser(&in); err != nil {
		return in, nil, false, fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = sanitize.Slugify(in.Name)
	}
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) == "" {
		in.ParentID = nil
	}

	if errs, _ := validation.Validate(in); errs != nil {
		return in, nil, false, validation.Respond(c, errs)
	}

	taken, err := slugTaken(h.db.WithContext(c.UserContext()), in.Slug, self)
	if err != nil {
		return in, nil, false, fiber.ErrInternalServerError
	}
	if taken {
		return in, nil, false, validation.Fields(c, map[string]string{"slug": "Slug already taken"})
	}

	var parentID *uuid.UUID
	if in.ParentID != nil {
		id := uuid.MustParse(*in.ParentID) // validated above
		if msg, err := h.checkParent(c, id, self); err != nil {
			return in, nil, false, err
		} else if msg != "" {
			return in, nil, false, validation.Fields(c, map[string]string{"parent_id": msg})
		}
		parentID = &id
	}
	return in, parentID, true, nil
}

// slugTaken reports whether another category already uses slug.
func slugTaken(db *gorm.DB, slug string, except *uuid.UUID) (bool, error) {
	q := db.Model(&models.Category{}).Where("slug = ?", slug)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// checkParent returns a user-facing message when parent is not acceptable.
func (h *Handler) checkParent(c *fiber.Ctx, parent uuid.UUID, self *uuid.UUID) (string, error) {
	if self != nil && parent == *self {
		return "A category cannot be its own parent", nil
	}
	cur := parent
	for depth := 0; depth < maxDepth; depth++ {
		var p models.Category
		err := h.db.WithContext(c.UserContext()).Select("id", "parent_id").First(&p, "id = ?", cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if depth == 0 {
				return "Selected parent does not exist", nil
			}
			return "", nil
		}
		if err != nil {
			return "", fiber.ErrInternalServerError
		}
		if self != nil && p.ParentID != nil && *p.ParentID == *self {
			return "A category cannot be nested under its own child", nil
		}
		if p.ParentID == nil {
			return "", nil
		}
		cur = *p.ParentID
	}
	return "Category tree is too deep", nil
}

func (h *Handler) find(c *fiber.Ctx, id string) (models.Category, error) {
	var cat models.Category
	if _, err := uuid.Parse(id); err != nil {
		return cat, fiber.ErrNotFound
	}
	err := h.db.WithContext(c.UserContext()).Preload("Parent").First(&cat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cat, fiber.ErrNotFound
		}
		return cat, fiber.ErrInternalServerError
	}
	return cat, nil
}

// parentOptions lists every category that may be chosen as a parent.
func (h *Handler) parentOptions(c *fiber.Ctx, self *uuid.UUID) ([]page.Option, error) {
	q := h.db.WithContext(c.UserContext()).Model(&models.Category{}).Order("name ASC")
	if self != nil {
		q = q.Where("id <> ?", *self)
	}
	var rows []models.Category
	if err := q.Find(&rows).Error; err != nil {
		return nil, fiber.ErrInternalServerError
	}
	opts := make([]page.Option, 0, len(rows))
	for _, r := range rows {
		opts = append(opts, page.Option{Value: r.ID.String(), Label: r.Name})
	}
	return opts, nil
}

func (h *Handler) audit(c *fiber.Ctx, id uuid.UUID, action, detail string) {
	actor, err := uuid.Parse(auth.MustUserID(c))
	if err != nil {
		return
	}
	utils.LogAdminAction(c.UserContext(), h.db, actor, "category", id, action, detail)
	h.log.WithFields(logrus.Fields{
		"category_id": id,
		"actor_id":    actor,
		"action":      action,
	}).Info("category changed")
}
