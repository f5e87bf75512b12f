package customers

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
	"github.com/aldoetobex/storefront-web/pkg/utils"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

// CustomerRequest is the body of PUT /admin/customers/:id.
// vendor_status is ignored unless role is vendor.
type CustomerRequest struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Email        string  `json:"email" validate:"required,email,max=120"`
	Phone        string  `json:"phone" validate:"omitempty,phone"`
	Role         string  `json:"role" validate:"required,oneof=customer vendor admin"`
	VendorStatus *string `json:"vendor_status" validate:"omitempty,oneof=pending approved suspended rejected"`
	IsActive     *bool   `json:"is_active"`
}

type Handler struct {
	db    *gorm.DB
	pages *inertia.Renderer
	log   *logrus.Logger
}

func NewHandler(db *gorm.DB, pages *inertia.Renderer, log *logrus.Logger) *Handler {
	return &Handler{db: db, pages: pages, log: log}
}

func toDTO(u models.User) page.Customer {
	return page.Customer{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		VendorStatus: u.VendorStatus,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// Index lists accounts, optionally filtered by role and a name/email search.
func (h *Handler) Index(c *fiber.Ctx) error {
	p, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("pageSize", "20"))
	if p < 1 {
		p = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	q := h.db.WithContext(c.UserContext()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	var rows []models.User
	if err := q.Order("created_at DESC").Offset((p - 1) * size).Limit(size).Find(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	items := make([]page.Customer, 0, len(rows))
	for _, r := range rows {
		items = append(items, toDTO(r))
	}
	return h.pages.Render(c, "Admin/Customers/Index", fiber.Map{
		"customers": page.Paginated[page.Customer]{
			Page: p, PageSize: size, Total: total,
			Pages: int(math.Ceil(float64(total) / float64(size))),
			Items: items,
		},
		"filters": fiber.Map{"role": c.Query("role"), "q": c.Query("q")},
	})
}

// Edit renders the account form.
func (h *Handler) Edit(c *fiber.Ctx) error {
	u, err := h.find(c, c.Params("id"))
	if err != nil {
		return err
	}
	return h.pages.Render(c, "Admin/Customers/Edit", fiber.Map{
		"customer":       toDTO(u),
		"roles":          models.Roles,
		"vendorStatuses": models.VendorStatuses,
	})
}

// Update saves role, status and contact changes for an account.
func (h *Handler) Update(c *fiber.Ctx) error {
	u, err := h.find(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in CustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.VendorStatus != nil && *in.VendorStatus == "" {
		in.VendorStatus = nil
	}

	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	if msg := selfEditProblem(auth.MustUserID(c), u, in); msg != "" {
		return validation.Fields(c, map[string]string{"role": msg})
	}

	var n int64
	if err := h.db.WithContext(c.UserContext()).Model(&models.User{}).
		Where("email = ? AND id <> ?", in.Email, u.ID).Count(&n).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if n > 0 {
		return validation.Fields(c, map[string]string{"email": "Email already taken"})
	}

	role := models.Role(in.Role)
	updates := map[string]any{
		"name":          in.Name,
		"email":         in.Email,
		"phone":         in.Phone,
		"role":          role,
		"vendor_status": vendorStatusFor(role, in.VendorStatus, u.VendorStatus),
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := h.db.WithContext(c.UserContext()).Model(&u).Updates(updates).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	if actor, err := uuid.Parse(auth.MustUserID(c)); err == nil {
		utils.LogAdminAction(c.UserContext(), h.db, actor, "customer", u.ID, "updated", "role="+in.Role)
	}
	h.log.WithFields(logrus.Fields{"customer_id": u.ID, "role": in.Role}).Info("customer updated")

	if err := h.pages.Flash(c, flash.KindSuccess, "Customer updated."); err != nil {
		return err
	}
	return h.pages.Redirect(c, "/admin/customers")
}

// vendorStatusFor keeps vendor_status only for vendors; a new vendor starts pending.
func vendorStatusFor(role models.Role, in *string, current *models.VendorStatus) *models.VendorStatus {
	if role != models.RoleVendor {
		return nil
	}
	if in != nil {
		vs := models.VendorStatus(*in)
		return &vs
	}
	if current != nil {
		return current
	}
	vs := models.VendorPending
	return &vs
}

// selfEditProblem stops an admin from locking themselves out.
func selfEditProblem(actorID string, target models.User, in CustomerRequest) string {
	if target.ID.String() != actorID {
		return ""
	}
	if models.Role(in.Role) != models.RoleAdmin {
		return "You cannot remove your own admin role"
	}
	if in.IsActive != nil && !*in.IsActive {
		return "You cannot disable your own account"
	}
	return ""
}

func (h *Handler) find(c *fiber.Ctx, id string) (models.User, error) {
	var u models.User
	if _, err := uuid.Parse(id); err != nil {
		return u, fiber.ErrNotFound
	}
	err := h.db.WithContext(c.UserContext()).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, fiber.ErrNotFound
		}
		return u, fiber.ErrInternalServerError
	}
	return u, nil
}
