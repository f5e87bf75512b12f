package forms

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/aldoetobex/storefront-web/pkg/page"
)

// NoParent is the select value meaning "no parent". It never leaves the
// select control: the draft holds nil and the payload sends null.
const NoParent = "none"

// CategoryDraft is the body of POST /admin/categories and
// PUT /admin/categories/{id}.
type CategoryDraft struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	IsActive    bool       `json:"is_active"`
}

type CategoryForm struct {
	*Form[CategoryDraft]
	Parents []page.Option
	editing *page.Category
}

// NewCategoryCreate builds the empty create form.
func NewCategoryCreate(nav Visitor, routes page.RouteConfig, parents []page.Option) (*CategoryForm, error) {
	url, err := routes.URL("admin.categories.store", nil)
	if err != nil {
		return nil, err
	}
	draft := CategoryDraft{IsActive: true}
	return &CategoryForm{Form: NewForm(nav, http.MethodPost, url, draft), Parents: parents}, nil
}

// NewCategoryEdit builds the form for an existing category.
func NewCategoryEdit(nav Visitor, routes page.RouteConfig, c page.Category, parents []page.Option) (*CategoryForm, error) {
	url, err := routes.URL("admin.categories.update", map[string]string{"id": c.ID.String()})
	if err != nil {
		return nil, err
	}
	draft := CategoryDraft{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
	}
	return &CategoryForm{Form: NewForm(nav, http.MethodPut, url, draft), Parents: parents, editing: &c}, nil
}

// CategoryFormFor builds the form matching a committed category page.
func CategoryFormFor(nav Visitor, p *page.Page) (*CategoryForm, error) {
	var parents []page.Option
	if _, err := p.Props.Decode("parents", &parents); err != nil {
		return nil, fmt.Errorf("parents prop: %w", err)
	}
	routes := p.Props.Routes()

	switch p.Component {
	case "Admin/Categories/Create":
		return NewCategoryCreate(nav, routes, parents)
	case "Admin/Categories/Edit":
		var c page.Category
		ok, err := p.Props.Decode("category", &c)
		if err != nil {
			return nil, fmt.Errorf("category prop: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("category prop missing")
		}
		return NewCategoryEdit(nav, routes, c, parents)
	default:
		return nil, fmt.Errorf("not a category form page: %s", p.Component)
	}
}

// Editing reports whether the form edits an existing category.
func (f *CategoryForm) Editing() bool { return f.editing != nil }

// ParentSelectValue is the value the parent select control shows.
func (f *CategoryForm) ParentSelectValue() string {
	if id := f.Data().ParentID; id != nil {
		return id.String()
	}
	return NoParent
}

// SetParentSelect applies a value picked in the parent select control.
func (f *CategoryForm) SetParentSelect(v string) error {
	if v == NoParent || v == "" {
		f.Set(func(d *CategoryDraft) { d.ParentID = nil }, "parent_id")
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return fmt.Errorf("parent select: %w", err)
	}
	f.Set(func(d *CategoryDraft) { d.ParentID = &id }, "parent_id")
	return nil
}

func (f *CategoryForm) Render() templ.Component {
	return categoryScreen(f, f.Data())
}

func (f *CategoryForm) submitLabel() string {
	if f.Editing() {
		return "Save"
	}
	return "Create"
}

// parentOptions puts the "No parent" choice ahead of the candidates.
func (f *CategoryForm) parentOptions() []page.Option {
	return append([]page.Option{{Value: NoParent, Label: "No parent"}}, f.Parents...)
}
