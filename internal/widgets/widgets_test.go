package widgets

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestTreatmentsAreDistinct(t *testing.T) {
	seen := map[Treatment]bool{}
	for _, r := range models.Roles {
		tr := RoleTreatment(r)
		assert.NotEqual(t, Neutral, tr, r)
		assert.False(t, seen[tr], "duplicate treatment for %s", r)
		seen[tr] = true
	}

	seen = map[Treatment]bool{}
	for _, s := range models.VendorStatuses {
		tr := VendorStatusTreatment(s)
		assert.NotEqual(t, Neutral, tr, s)
		assert.False(t, seen[tr], "duplicate treatment for %s", s)
		seen[tr] = true
	}

	assert.Equal(t, Neutral, RoleTreatment("superuser"))
	assert.Equal(t, Neutral, VendorStatusTreatment(""))
}

func TestBadges(t *testing.T) {
	html := render(t, VendorStatusBadge(models.VendorSuspended))
	assert.Contains(t, html, `badge-vendor-status badge-orange`)
	assert.Contains(t, html, `Suspended`)

	assert.Contains(t, render(t, RoleBadge("ghost")), `Unknown`)
}

func TestProfileHeader(t *testing.T) {
	pending := models.VendorPending
	u := &page.User{Name: "vera <v> stone", Email: "vera@example.com", Role: models.RoleVendor, VendorStatus: &pending}

	html := render(t, ProfileHeader(u, "March 2024"))
	assert.Contains(t, html, `avatar-initials">V&lt;</span>`)
	assert.Contains(t, html, `vera &lt;v&gt; stone`)
	assert.Contains(t, html, `Pending review`)
	assert.Contains(t, html, `Member since March 2024`)

	u.Role = models.RoleCustomer
	u.AvatarURL = "https://cdn.example.com/a.png?token=x&y=1"
	html = render(t, ProfileHeader(u, ""))
	assert.NotContains(t, html, `Pending review`)
	assert.Contains(t, html, `src="https://cdn.example.com/a.png?token=x&amp;y=1"`)

	assert.Empty(t, render(t, ProfileHeader(nil, "")))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("ada lovelace byron"))
	assert.Equal(t, "É", Initials("  émile "))
	assert.Equal(t, "?", Initials(""))
}

func TestAdBanner(t *testing.T) {
	assert.Empty(t, render(t, AdBanner(nil)))
	assert.Empty(t, render(t, AdBanner(&page.Banner{})))

	html := render(t, AdBanner(&page.Banner{Title: "Sale", Href: "/sale", ImageURL: "https://img/x.webp"}))
	assert.Contains(t, html, `<a href="/sale">`)
	assert.Contains(t, html, `<strong>Sale</strong>`)
}

func TestCheckoutSteps(t *testing.T) {
	steps := Steps(models.OrderPayment)
	require.Len(t, steps, len(models.CheckoutSteps))
	assert.Equal(t, []StepState{StepDone, StepDone, StepCurrent, StepUpcoming, StepUpcoming},
		[]StepState{steps[0].State, steps[1].State, steps[2].State, steps[3].State, steps[4].State})

	for _, s := range Steps(models.OrderComplete) {
		assert.Equal(t, StepDone, s.State)
	}
	for _, s := range Steps("lost") {
		assert.Equal(t, StepUpcoming, s.State)
	}

	html := render(t, CheckoutProgress(models.OrderShipping))
	assert.Contains(t, html, `<li class="step step-current" aria-current="step"><span class="step-number">2</span>Shipping</li>`)
}

func TestRoleSwitcher(t *testing.T) {
	assert.Equal(t, []Link{{Label: "Log in", Href: "/login"}}, SwitcherLinks(nil))
	assert.Len(t, SwitcherLinks(&page.User{Role: models.RoleCustomer}), 2)

	html := render(t, RoleSwitcher(&page.User{Role: models.RoleAdmin}, "/admin/customers"))
	assert.Contains(t, html, `<a href="/admin/customers" aria-current="page">Customers</a>`)
	assert.Contains(t, html, `<a href="/admin/categories">Categories</a>`)
	assert.Contains(t, html, `Admin`)
}

func TestBannerAndSwitcherLinksAreSanitized(t *testing.T) {
	html := render(t, AdBanner(&page.Banner{Title: `Deals "today"`, Href: "javascript:alert(1)"}))
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, `<strong>Deals &#34;today&#34;</strong>`)

	u := &page.User{Name: `Ann" onmouseover="x`, Role: models.Role(`admin" data-x="1`)}
	html = render(t, ProfileHeader(u, ""))
	assert.Contains(t, html, `Ann&#34; onmouseover=&#34;x`)
	assert.NotContains(t, html, `onmouseover="x`)
	assert.Contains(t, html, `badge-role badge-gray`, "unknown role falls back to the neutral badge")
}
