package forms

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// CustomerDraft is the body of PUT /admin/customers/{id}.
type CustomerDraft struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	Role         models.Role          `json:"role"`
	VendorStatus *models.VendorStatus `json:"vendor_status"`
	IsActive     bool                 `json:"is_active"`
}

type CustomerForm struct {
	*Form[CustomerDraft]
	customer page.Customer
}

// NewCustomerEdit builds the edit form for an account.
func NewCustomerEdit(nav Visitor, routes page.RouteConfig, c page.Customer) (*CustomerForm, error) {
	url, err := routes.URL("admin.customers.update", map[string]string{"id": c.ID.String()})
	if err != nil {
		return nil, err
	}
	draft := CustomerDraft{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Role:         c.Role,
		VendorStatus: c.VendorStatus,
		IsActive:     c.IsActive,
	}
	return &CustomerForm{Form: NewForm(nav, http.MethodPut, url, draft), customer: c}, nil
}

// CustomerFormFor builds the form from a committed Admin/Customers/Edit page.
func CustomerFormFor(nav Visitor, p *page.Page) (*CustomerForm, error) {
	if p.Component != "Admin/Customers/Edit" {
		return nil, fmt.Errorf("not a customer form page: %s", p.Component)
	}
	var c page.Customer
	ok, err := p.Props.Decode("customer", &c)
	if err != nil {
		return nil, fmt.Errorf("customer prop: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("customer prop missing")
	}
	return NewCustomerEdit(nav, p.Props.Routes(), c)
}

// SetRole changes the role. Leaving the vendor role drops the vendor status.
func (f *CustomerForm) SetRole(r models.Role) {
	f.Set(func(d *CustomerDraft) {
		d.Role = r
		if r != models.RoleVendor {
			d.VendorStatus = nil
		}
	}, "role", "vendor_status")
}

// SetVendorStatus applies a vendor status select value; "none" clears it.
func (f *CustomerForm) SetVendorStatus(v string) {
	f.Set(func(d *CustomerDraft) {
		if v == "" || v == NoParent {
			d.VendorStatus = nil
			return
		}
		s := models.VendorStatus(v)
		d.VendorStatus = &s
	}, "vendor_status")
}

func (f *CustomerForm) Render() templ.Component {
	return customerScreen(f, f.Data())
}

func roleOptions() []page.Option {
	opts := make([]page.Option, 0, len(models.Roles))
	for _, r := range models.Roles {
		opts = append(opts, page.Option{Value: string(r), Label: titleCase(string(r))})
	}
	return opts
}

func vendorStatusOptions() []page.Option {
	opts := []page.Option{{Value: NoParent, Label: "Not set"}}
	for _, s := range models.VendorStatuses {
		opts = append(opts, page.Option{Value: string(s), Label: titleCase(string(s))})
	}
	return opts
}

func vendorStatusValue(s *models.VendorStatus) string {
	if s == nil {
		return NoParent
	}
	return string(*s)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
