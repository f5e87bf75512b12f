package forms

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// GenericFailure is shown when a submit fails without a server error map.
const GenericFailure = "An error occurred. Please try again."

/* ================================ Login ================================= */

type LoginDraft struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type LoginForm struct {
	*Form[LoginDraft]
}

func NewLogin(nav Visitor, routes page.RouteConfig) (*LoginForm, error) {
	url, err := routes.URL("login.store", nil)
	if err != nil {
		return nil, err
	}
	return &LoginForm{Form: NewForm(nav, http.MethodPost, url, LoginDraft{})}, nil
}

// Submit sends the credentials. The password is cleared afterwards whatever
// the outcome.
func (f *LoginForm) Submit(ctx context.Context) (navigation.Outcome, error) {
	out, err := f.Form.Submit(ctx)
	if errors.Is(err, ErrSubmitInFlight) {
		return out, err
	}
	f.Update(func(d *LoginDraft) { d.Password = "" })
	return out, err
}

func (f *LoginForm) Render() templ.Component {
	return loginScreen(f, f.Data())
}

/* ============================ Password reset ============================ */

type ForgotPasswordDraft struct {
	Email string `json:"email"`
}

type ForgotPasswordForm struct {
	*Form[ForgotPasswordDraft]
	status string
}

func NewForgotPassword(nav Visitor, routes page.RouteConfig) (*ForgotPasswordForm, error) {
	url, err := routes.URL("password.email", nil)
	if err != nil {
		return nil, err
	}
	return &ForgotPasswordForm{Form: NewForm(nav, http.MethodPost, url, ForgotPasswordDraft{})}, nil
}

// Submit requests a reset link. Any failure that is not a field error leaves
// the form editable with GenericFailure shown above the fields.
func (f *ForgotPasswordForm) Submit(ctx context.Context) (navigation.Outcome, error) {
	out, err := f.Form.Submit(ctx)
	switch {
	case errors.Is(err, ErrSubmitInFlight):
		return out, err
	case err != nil:
		f.setFormError(GenericFailure)
		return out, err
	}
	if !out.Failed() && out.Page != nil {
		f.mu.Lock()
		f.status = out.Page.Props.Flash().Info
		f.mu.Unlock()
	}
	return out, nil
}

// Status is the confirmation shown after a successful request.
func (f *ForgotPasswordForm) Status() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

func (f *ForgotPasswordForm) Render() templ.Component {
	return forgotPasswordScreen(f, f.Data())
}
