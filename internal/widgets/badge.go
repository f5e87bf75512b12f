// Package widgets renders the display components. Every rendering decision is
// derived from the props handed in; nothing here talks to the network.
package widgets

import (
	"github.com/a-h/templ"

	"github.com/aldoetobex/storefront-web/pkg/models"
)

// Treatment is how a role or vendor status is drawn.
type Treatment struct {
	Label string
	Color string
	Icon  string
}

// Neutral is used for values the widgets do not know.
var Neutral = Treatment{Label: "Unknown", Color: "gray", Icon: "circle-help"}

var roleTreatments = map[models.Role]Treatment{
	models.RoleCustomer: {Label: "Customer", Color: "blue", Icon: "user"},
	models.RoleVendor:   {Label: "Vendor", Color: "purple", Icon: "store"},
	models.RoleAdmin:    {Label: "Admin", Color: "red", Icon: "shield"},
}

var vendorTreatments = map[models.VendorStatus]Treatment{
	models.VendorPending:   {Label: "Pending review", Color: "amber", Icon: "clock"},
	models.VendorApproved:  {Label: "Approved", Color: "green", Icon: "check-circle"},
	models.VendorSuspended: {Label: "Suspended", Color: "orange", Icon: "pause-circle"},
	models.VendorRejected:  {Label: "Rejected", Color: "red", Icon: "x-circle"},
}

func RoleTreatment(r models.Role) Treatment {
	if t, ok := roleTreatments[r]; ok {
		return t
	}
	return Neutral
}

func VendorStatusTreatment(s models.VendorStatus) Treatment {
	if t, ok := vendorTreatments[s]; ok {
		return t
	}
	return Neutral
}

func RoleBadge(r models.Role) templ.Component {
	return badge("role", RoleTreatment(r))
}

func VendorStatusBadge(s models.VendorStatus) templ.Component {
	return badge("vendor-status", VendorStatusTreatment(s))
}
