// Package page defines the page object exchanged between the page host and the
// presentation runtime, and the shared props every page carries.
package page

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/models"
)

// Protocol headers.
const (
	HeaderPage          = "X-Inertia"
	HeaderVersion       = "X-Inertia-Version"
	HeaderLocation      = "X-Inertia-Location"
	HeaderCSRF          = "X-CSRF-TOKEN"
	HeaderRequestedWith = "X-Requested-With"
	RequestedWithAJAX   = "XMLHttpRequest"
)

// Shared prop keys.
const (
	PropAuth   = "auth"
	PropFlash  = "flash"
	PropErrors = "errors"
	PropRoutes = "ziggy"
)

// Page is one rendered page: the component to show and its props bag.
type Page struct {
	Component string `json:"component"`
	Props     Props  `json:"props"`
	URL       string `json:"url"`
	Version   string `json:"version"`
}

// Props is the raw props bag. Every key is optional for consumers.
type Props map[string]json.RawMessage

// Decode unmarshals key into v. It reports false when the key is absent or null.
func (p Props) Decode(key string, v any) (bool, error) {
	raw, ok := p[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set marshals v under key.
func (p Props) Set(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p[key] = b
	return nil
}

// Auth returns the auth prop; a malformed or missing value yields a guest.
func (p Props) Auth() Auth {
	var a Auth
	_, _ = p.Decode(PropAuth, &a)
	return a
}

// Flash returns the flash payload of this response.
func (p Props) Flash() flash.Payload {
	var f flash.Payload
	_, _ = p.Decode(PropFlash, &f)
	return f
}

// Errors returns the validation error map of this response.
func (p Props) Errors() ErrorBag {
	var e ErrorBag
	_, _ = p.Decode(PropErrors, &e)
	return e
}

// Routes returns the route helper configuration.
func (p Props) Routes() RouteConfig {
	var r RouteConfig
	_, _ = p.Decode(PropRoutes, &r)
	return r
}

/* ================================ Auth ================================== */

// Auth is the `auth` prop.
type Auth struct {
	User *User `json:"user"`
}

// User is the public shape of the signed-in user.
type User struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Role         models.Role          `json:"role"`
	VendorStatus *models.VendorStatus `json:"vendor_status,omitempty"`
	AvatarURL    string               `json:"avatar_url,omitempty"`
}

/* ============================== Errors ================================== */

// ErrorBag maps a field name to its validation message.
type ErrorBag map[string]string

// Get returns the message for field, or "" when the field is clean.
func (e ErrorBag) Get(field string) string {
	if e == nil {
		return ""
	}
	return e[field]
}

// Any reports whether at least one field failed.
func (e ErrorBag) Any() bool { return len(e) > 0 }
