package widgets

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

/* ============================ Profile header ============================ */

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(part))[0])
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// ProfileHeader shows the avatar (or initials), name, email and badges of u.
// The vendor status badge only appears for vendors that have one.
func ProfileHeader(u *page.User, memberSince string) templ.Component {
	if u == nil {
		return templ.NopComponent
	}
	return profileHeader(u, memberSince)
}

/* =============================== Ad banner ============================== */

// AdBanner renders the promotional slot; an empty slot renders nothing.
func AdBanner(b *page.Banner) templ.Component {
	if b == nil || b.Title == "" {
		return templ.NopComponent
	}
	return adBanner(b)
}

/* =========================== Checkout progress ========================== */

// StepState is where a checkout step stands relative to the order.
type StepState string

const (
	StepDone     StepState = "done"
	StepCurrent  StepState = "current"
	StepUpcoming StepState = "upcoming"
)

// Step is one entry of the checkout progress bar.
type Step struct {
	Status models.OrderStatus
	Label  string
	State  StepState
}

var stepLabels = map[models.OrderStatus]string{
	models.OrderCart:     "Cart",
	models.OrderShipping: "Shipping",
	models.OrderPayment:  "Payment",
	models.OrderReview:   "Review",
	models.OrderComplete: "Complete",
}

// Steps places current within the checkout progression. An unknown status
// leaves every step upcoming.
func Steps(current models.OrderStatus) []Step {
	idx := -1
	for i, s := range models.CheckoutSteps {
		if s == current {
			idx = i
		}
	}
	out := make([]Step, len(models.CheckoutSteps))
	for i, s := range models.CheckoutSteps {
		st := StepUpcoming
		switch {
		case idx < 0:
		case i < idx || (i == idx && s == models.OrderComplete):
			st = StepDone
		case i == idx:
			st = StepCurrent
		}
		out[i] = Step{Status: s, Label: stepLabels[s], State: st}
	}
	return out
}

func CheckoutProgress(current models.OrderStatus) templ.Component {
	return checkoutProgress(Steps(current))
}

/* ============================= Role switcher ============================ */

// Link is one destination of the role switcher.
type Link struct {
	Label string
	Href  string
}

// SwitcherLinks lists the areas u may move between. Guests only get the
// login link.
func SwitcherLinks(u *page.User) []Link {
	if u == nil {
		return []Link{{Label: "Log in", Href: "/login"}}
	}
	links := []Link{{Label: "Storefront", Href: "/"}, {Label: "Profile", Href: "/profile"}}
	if u.Role == models.RoleAdmin {
		links = append(links,
			Link{Label: "Categories", Href: "/admin/categories"},
			Link{Label: "Customers", Href: "/admin/customers"},
		)
	}
	return links
}

// RoleSwitcher renders the links of SwitcherLinks; the one matching
// currentPath is marked.
func RoleSwitcher(u *page.User, currentPath string) templ.Component {
	return roleSwitcher(u, SwitcherLinks(u), currentPath)
}
