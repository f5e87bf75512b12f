package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/internal/transport"
	"github.com/aldoetobex/storefront-web/pkg/models"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

type sent struct {
	method string
	url    string
	body   []byte
}

// fakeVisitor records every visit and answers with the queued outcome.
type fakeVisitor struct {
	mu    sync.Mutex
	calls []sent
	out   navigation.Outcome
	err   error
	gate  chan struct{}
}

func (v *fakeVisitor) Visit(_ context.Context, method, url string, data any) (navigation.Outcome, error) {
	b, _ := json.Marshal(data)
	v.mu.Lock()
	v.calls = append(v.calls, sent{method: method, url: url, body: b})
	gate := v.gate
	v.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return v.out, v.err
}

var routes = page.RouteConfig{Routes: map[string]page.Route{
	"admin.categories.store":  {URI: "admin/categories", Methods: []string{"POST"}},
	"admin.categories.update": {URI: "admin/categories/{id}", Methods: []string{"PUT"}},
	"admin.customers.update":  {URI: "admin/customers/{id}", Methods: []string{"PUT"}},
	"login.store":             {URI: "login", Methods: []string{"POST"}},
	"password.email":          {URI: "forgot-password", Methods: []string{"POST"}},
}}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestCreateSendsNullParent(t *testing.T) {
	v := &fakeVisitor{}
	f, err := NewCategoryCreate(v, routes, nil)
	require.NoError(t, err)

	f.Update(func(d *CategoryDraft) { d.Name = "Shoes" })
	require.NoError(t, f.SetParentSelect(NoParent))

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, v.calls, 1)
	assert.Equal(t, http.MethodPost, v.calls[0].method)
	assert.Equal(t, "/admin/categories", v.calls[0].url)

	var body map[string]any
	require.NoError(t, json.Unmarshal(v.calls[0].body, &body))
	assert.Equal(t, "Shoes", body["name"])
	assert.Contains(t, body, "parent_id")
	assert.Nil(t, body["parent_id"])
	assert.Equal(t, true, body["is_active"])
}

func TestParentSelectRoundTrip(t *testing.T) {
	parent := uuid.New()
	cat := page.Category{ID: uuid.New(), Name: "Sneakers", Slug: "sneakers"}

	f, err := NewCategoryEdit(&fakeVisitor{}, routes, cat, []page.Option{{Value: parent.String(), Label: "Shoes"}})
	require.NoError(t, err)
	assert.Equal(t, NoParent, f.ParentSelectValue())
	assert.Nil(t, f.Data().ParentID)

	require.NoError(t, f.SetParentSelect(parent.String()))
	assert.Equal(t, parent.String(), f.ParentSelectValue())
	require.NotNil(t, f.Data().ParentID)
	assert.Equal(t, parent, *f.Data().ParentID)

	require.NoError(t, f.SetParentSelect(NoParent))
	assert.Nil(t, f.Data().ParentID)
	assert.Equal(t, NoParent, f.ParentSelectValue())

	assert.Error(t, f.SetParentSelect("not-a-uuid"))
	assert.Nil(t, f.Data().ParentID)
}

func TestEditPutsToEntityURL(t *testing.T) {
	parent := uuid.New()
	cat := page.Category{ID: uuid.New(), Name: "Sneakers", Slug: "sneakers", ParentID: &parent, IsActive: true}
	v := &fakeVisitor{}

	f, err := NewCategoryEdit(v, routes, cat, nil)
	require.NoError(t, err)
	assert.True(t, f.Editing())
	assert.Equal(t, parent.String(), f.ParentSelectValue())

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, v.calls[0].method)
	assert.Equal(t, "/admin/categories/"+cat.ID.String(), v.calls[0].url)
	assert.Contains(t, string(v.calls[0].body), `"parent_id":"`+parent.String()+`"`)
}

func TestSlugErrorRendersOnlyOnSlug(t *testing.T) {
	v := &fakeVisitor{out: navigation.Outcome{Errors: page.ErrorBag{
		"slug":    "Slug already taken",
		"unknown": "never shown",
	}}}
	f, err := NewCategoryCreate(v, routes, nil)
	require.NoError(t, err)
	f.Update(func(d *CategoryDraft) { d.Name = "Shoes"; d.Slug = "shoes" })

	out, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Failed())
	assert.Equal(t, "Slug already taken", f.Error("slug"))
	assert.Empty(t, f.Error("name"))

	html := render(t, f.Render())
	assert.Contains(t, html, `<p class="field-error" id="slug-error">Slug already taken</p>`)
	assert.Contains(t, html, `id="slug" name="slug" value="shoes" aria-invalid="true"`)
	assert.NotContains(t, html, `name-error`)
	assert.NotContains(t, html, `never shown`)
	assert.Contains(t, html, `<option value="none" selected>No parent</option>`)

	// fixed and resubmitted: errors clear
	v.out = navigation.Outcome{}
	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.Error("slug"))
}

func TestSubmitInFlight(t *testing.T) {
	v := &fakeVisitor{gate: make(chan struct{})}
	f, err := NewCategoryCreate(v, routes, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, f.Processing, time.Second, 5*time.Millisecond)

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.Contains(t, render(t, f.Render()), `disabled aria-busy="true"`)

	close(v.gate)
	require.NoError(t, <-done)
	assert.False(t, f.Processing())
	assert.Len(t, v.calls, 1)
}

func TestForgotPasswordLocalFailure(t *testing.T) {
	v := &fakeVisitor{err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")}
	f, err := NewForgotPassword(v, routes)
	require.NoError(t, err)
	f.Update(func(d *ForgotPasswordDraft) { d.Email = "ann@example.com" })

	_, err = f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, GenericFailure, f.FormError())
	assert.False(t, f.Processing())
	assert.Equal(t, "ann@example.com", f.Data().Email)

	html := render(t, f.Render())
	assert.Contains(t, html, GenericFailure)
	assert.NotContains(t, html, "disabled")

	// server recovers: resubmit works and the message goes away
	p := &page.Page{Component: "Auth/ForgotPassword", Props: page.Props{}}
	require.NoError(t, p.Props.Set(page.PropFlash, map[string]string{"info": "check your inbox"}))
	v.err, v.out = nil, navigation.Outcome{Page: p}

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.FormError())
	assert.Equal(t, "check your inbox", f.Status())
	assert.Len(t, v.calls, 2)
}

func TestForgotPasswordServerErrorIsGeneric(t *testing.T) {
	v := &fakeVisitor{err: &transport.StatusError{Code: http.StatusTooManyRequests}}
	f, err := NewForgotPassword(v, routes)
	require.NoError(t, err)

	_, err = f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, GenericFailure, f.FormError())
}

func TestLoginClearsPassword(t *testing.T) {
	v := &fakeVisitor{out: navigation.Outcome{Errors: page.ErrorBag{"email": "These credentials do not match our records."}}}
	f, err := NewLogin(v, routes)
	require.NoError(t, err)
	f.Update(func(d *LoginDraft) { d.Email = "ann@example.com"; d.Password = "hunter22" })

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(v.calls[0].body), `"password":"hunter22"`)
	assert.Empty(t, f.Data().Password)
	assert.Equal(t, "ann@example.com", f.Data().Email)
	assert.Contains(t, render(t, f.Render()), "These credentials do not match our records.")
}

func TestCustomerRoleDropsVendorStatus(t *testing.T) {
	approved := models.VendorApproved
	c := page.Customer{ID: uuid.New(), Name: "Vee", Email: "vee@example.com", Role: models.RoleVendor, VendorStatus: &approved, IsActive: true}
	v := &fakeVisitor{}

	f, err := NewCustomerEdit(v, routes, c)
	require.NoError(t, err)
	assert.Contains(t, render(t, f.Render()), `<option value="approved" selected>Approved</option>`)

	f.SetRole(models.RoleCustomer)
	assert.Nil(t, f.Data().VendorStatus)
	assert.NotContains(t, render(t, f.Render()), `name="vendor_status"`)

	f.SetRole(models.RoleVendor)
	f.SetVendorStatus("suspended")
	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/admin/customers/"+c.ID.String(), v.calls[0].url)
	assert.Contains(t, string(v.calls[0].body), `"vendor_status":"suspended"`)
}

func TestCategoryFormForPage(t *testing.T) {
	p := &page.Page{Component: "Admin/Categories/Edit", Props: page.Props{}}
	cat := page.Category{ID: uuid.New(), Name: "Boots", Slug: "boots"}
	require.NoError(t, p.Props.Set("category", cat))
	require.NoError(t, p.Props.Set("parents", []page.Option{{Value: uuid.NewString(), Label: "Shoes"}}))
	require.NoError(t, p.Props.Set(page.PropRoutes, routes))

	f, err := CategoryFormFor(&fakeVisitor{}, p)
	require.NoError(t, err)
	assert.True(t, f.Editing())
	assert.Equal(t, "Boots", f.Data().Name)
	assert.Len(t, f.Parents, 1)

	p.Component = "Home"
	_, err = CategoryFormFor(&fakeVisitor{}, p)
	assert.Error(t, err)
}

func TestEditingFieldClearsItsError(t *testing.T) {
	v := &fakeVisitor{out: navigation.Outcome{Errors: page.ErrorBag{
		"slug": "Slug already taken",
		"name": "Name is too short",
	}}}
	f, err := NewCategoryCreate(v, routes, nil)
	require.NoError(t, err)
	f.Update(func(d *CategoryDraft) { d.Name = "S"; d.Slug = "shoes" })
	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	before := f.Errors()

	f.Set(func(d *CategoryDraft) { d.Slug = "shoes-2" }, "slug")
	assert.Empty(t, f.Error("slug"))
	assert.Equal(t, "Name is too short", f.Error("name"))
	assert.Equal(t, "Slug already taken", before.Get("slug"), "earlier snapshots are not mutated")

	html := render(t, f.Render())
	assert.NotContains(t, html, `slug-error`)
	assert.Contains(t, html, `<p class="field-error" id="name-error">Name is too short</p>`)
}

func TestRoleChangeClearsRoleErrors(t *testing.T) {
	pending := models.VendorPending
	c := page.Customer{ID: uuid.New(), Name: "Vee", Email: "vee@example.com", Role: models.RoleVendor, VendorStatus: &pending, IsActive: true}
	v := &fakeVisitor{out: navigation.Outcome{Errors: page.ErrorBag{
		"vendor_status": "Invalid status",
		"email":         "Email already taken",
	}}}
	f, err := NewCustomerEdit(v, routes, c)
	require.NoError(t, err)
	_, err = f.Submit(context.Background())
	require.NoError(t, err)

	f.SetRole(models.RoleCustomer)
	assert.Empty(t, f.Error("vendor_status"))
	assert.Equal(t, "Email already taken", f.Error("email"))
}

func TestFieldValuesAreEscaped(t *testing.T) {
	f, err := NewCategoryCreate(&fakeVisitor{}, routes, []page.Option{{Value: `x" selected="`, Label: "<Shoes>"}})
	require.NoError(t, err)
	f.Update(func(d *CategoryDraft) { d.Name = `"><script>alert(1)</script>` })

	html := render(t, f.Render())
	assert.Contains(t, html, `value="&#34;&gt;&lt;script&gt;alert(1)&lt;/script&gt;"`)
	assert.NotContains(t, html, `<script>`)
	assert.Contains(t, html, `<option value="x&#34; selected=&#34;">&lt;Shoes&gt;</option>`)
	assert.Contains(t, html, `action="/admin/categories"`)
}
