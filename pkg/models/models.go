package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleCustomer, RoleVendor, RoleAdmin}

// VendorStatus is the review state of a vendor account.
type VendorStatus string

const (
	VendorPending   VendorStatus = "pending"
	VendorApproved  VendorStatus = "approved"
	VendorSuspended VendorStatus = "suspended"
	VendorRejected  VendorStatus = "rejected"
)

// VendorStatuses lists every vendor status in display order.
var VendorStatuses = []VendorStatus{VendorPending, VendorApproved, VendorSuspended, VendorRejected}

// OrderStatus is the checkout step an order has reached.
type OrderStatus string

const (
	OrderCart     OrderStatus = "cart"
	OrderShipping OrderStatus = "shipping"
	OrderPayment  OrderStatus = "payment"
	OrderReview   OrderStatus = "review"
	OrderComplete OrderStatus = "complete"
)

// CheckoutSteps is the fixed progression of an order.
var CheckoutSteps = []OrderStatus{OrderCart, OrderShipping, OrderPayment, OrderReview, OrderComplete}

/* =============================== Entities =============================== */

// User is a storefront account: a shopper, a vendor, or an administrator.
type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string        `gorm:"uniqueIndex;not null"`
	PasswordHash string        `gorm:"not null"`
	Role         Role          `gorm:"type:varchar(20);not null;default:'customer'"`
	VendorStatus *VendorStatus `gorm:"type:varchar(20)"` // only set for vendors
	Name         string        `gorm:"not null"`
	Phone        string
	AvatarKey    string
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category is a node of the product category tree.
type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"not null"`
	Slug        string     `gorm:"uniqueIndex;not null"`
	Description string     `gorm:"type:text"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Parent      *Category  `gorm:"foreignKey:ParentID;references:ID"`
	IsActive    bool       `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is a shopper's checkout in progress.
type Order struct {
	ID          uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'cart'"`
	TotalCents  int         `gorm:"not null"` // stored in cents to avoid float issues
	PaymentRef  *string     `gorm:"uniqueIndex"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Banner is a promotional slot shown on storefront pages.
type Banner struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Placement string    `gorm:"type:varchar(40);not null;index"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"type:text"`
	Href      string
	ImageKey  string `gorm:"not null"`
	Mime      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}

// PasswordReset is an outstanding reset token; only its hash is stored.
type PasswordReset struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

// AdminAudit is an audit log entry for admin changes to catalog and accounts.
type AdminAudit struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index"`
	EntityType string    `gorm:"type:varchar(40);not null"`  // e.g. category, customer
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index"`   // affected row
	Action     string    `gorm:"type:varchar(50);not null"`  // e.g. created, updated
	Detail     string    `gorm:"type:text"`                  // optional summary of the change
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Category{}, &Order{}, &Banner{}, &PasswordReset{}, &AdminAudit{},
	}
}
