package checkout

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldoetobex/storefront-web/internal/auth"
	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

// DeclineToken makes the mock payment provider refuse the charge.
const DeclineToken = "tok_decline"

var (
	// errDeclined aborts the advance transaction when the mock provider refuses.
	errDeclined     = errors.New("payment declined")
	errMissingToken = errors.New("payment token required")
)

// AdvanceRequest is the body of POST /checkout/:id/advance.
// payment_token is only read on the payment step.
type AdvanceRequest struct {
	PaymentToken string `json:"payment_token" validate:"max=120"`
}

type Handler struct {
	db    *gorm.DB
	pages *inertia.Renderer
	log   *logrus.Logger
}

func NewHandler(db *gorm.DB, pages *inertia.Renderer, log *logrus.Logger) *Handler {
	return &Handler{db: db, pages: pages, log: log}
}

// Next returns the step after s, and false when s is the last (or unknown) step.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	for i, step := range models.CheckoutSteps {
		if step == s && i+1 < len(models.CheckoutSteps) {
			return models.CheckoutSteps[i+1], true
		}
	}
	return "", false
}

func toDTO(o models.Order) page.Order {
	return page.Order{ID: o.ID, Status: o.Status, TotalCents: o.TotalCents}
}

// Show renders the checkout page of an order owned by the current user.
func (h *Handler) Show(c *fiber.Ctx) error {
	o, err := h.owned(c, h.db.WithContext(c.UserContext()), c.Params("id"))
	if err != nil {
		return err
	}
	return h.pages.Render(c, "Checkout/Show", fiber.Map{
		"order": toDTO(o),
		"steps": models.CheckoutSteps,
	})
}

// Advance moves the order one step forward. The row is locked so two tabs
// cannot both advance the same order.
func (h *Handler) Advance(c *fiber.Ctx) error {
	var in AdvanceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return fiber.ErrBadRequest
		}
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	back := "/checkout/" + c.Params("id")
	var moved models.Order

	err := h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		o, err := h.owned(c, tx.Clauses(clause.Locking{Strength: "UPDATE"}), c.Params("id"))
		if err != nil {
			return err
		}
		next, ok := Next(o.Status)
		if !ok {
			return fiber.NewError(fiber.StatusConflict, "order is already complete")
		}

		updates := map[string]any{"status": next}
		switch o.Status {
		case models.OrderPayment:
			if in.PaymentToken == "" {
				return errMissingToken
			}
			if in.PaymentToken == DeclineToken {
				return errDeclined
			}
			updates["payment_ref"] = "mock_" + uuid.NewString()
		case models.OrderReview:
			updates["completed_at"] = time.Now()
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
		o.Status = next
		moved = o
		return nil
	})

	switch {
	case errors.Is(err, errMissingToken):
		return validation.Fields(c, map[string]string{"payment_token": "This field is required"})
	case errors.Is(err, errDeclined):
		h.log.WithField("order_id", c.Params("id")).Info("mock payment declined")
		if err := h.pages.Flash(c, flash.KindError, "Payment failed"); err != nil {
			return err
		}
		return h.pages.Redirect(c, back)
	case err != nil:
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.ErrInternalServerError
	}

	if moved.Status == models.OrderComplete {
		if err := h.pages.Flash(c, flash.KindSuccess, "Order placed!"); err != nil {
			return err
		}
	}
	return h.pages.Redirect(c, back)
}

// owned loads the order when it belongs to the current user. Other users'
// orders look missing rather than forbidden.
func (h *Handler) owned(c *fiber.Ctx, q *gorm.DB, id string) (models.Order, error) {
	var o models.Order
	if _, err := uuid.Parse(id); err != nil {
		return o, fiber.ErrNotFound
	}
	err := q.First(&o, "id = ? AND customer_id = ?", id, auth.MustUserID(c)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return o, fiber.ErrNotFound
		}
		return o, fiber.ErrInternalServerError
	}
	return o, nil
}
