package page

import (
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/storefront-web/pkg/models"
)

// Category is the category record sent to the category screens.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ParentName  string     `json:"parent_name,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// Option is one choice of a select control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Customer is the account record sent to the customer screens.
type Customer struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	Role         models.Role          `json:"role"`
	VendorStatus *models.VendorStatus `json:"vendor_status"`
	IsActive     bool                 `json:"is_active"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Paginated wraps one page of a listing.
type Paginated[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
	Items    []T   `json:"items"`
}

// Order is the checkout summary shown by the checkout page.
type Order struct {
	ID         uuid.UUID          `json:"id"`
	Status     models.OrderStatus `json:"status"`
	TotalCents int                `json:"total_cents"`
}

// Banner is the promotional slot attached to storefront pages.
type Banner struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Href     string    `json:"href"`
	ImageURL string    `json:"image_url"`
}
