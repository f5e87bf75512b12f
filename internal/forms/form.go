// Package forms implements the form screens: a draft initialized from defaults
// or an existing entity, a single in-flight submit, and server field errors
// rendered next to their inputs.
package forms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submit of the same form has not finished.
var ErrSubmitInFlight = errors.New("forms: submit already in flight")

// Visitor sends a navigation; *navigation.Navigator satisfies it.
type Visitor interface {
	Visit(ctx context.Context, method, url string, data any) (navigation.Outcome, error)
}

// Form is the state shared by every screen: the draft, the last field
// errors, and the in-flight flag.
type Form[T any] struct {
	nav     Visitor
	method  string
	url     string
	initial T

	processing atomic.Bool

	mu        sync.RWMutex
	draft     T
	errors    page.ErrorBag
	formError string
}

// NewForm returns a form that submits the whole draft with method to url.
func NewForm[T any](nav Visitor, method, url string, initial T) *Form[T] {
	return &Form[T]{nav: nav, method: method, url: url, initial: initial, draft: initial}
}

func (f *Form[T]) Method() string { return f.method }
func (f *Form[T]) URL() string    { return f.url }

// Data returns a copy of the draft.
func (f *Form[T]) Data() T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.draft
}

// Update edits the draft in place.
func (f *Form[T]) Update(fn func(d *T)) {
	f.mu.Lock()
	fn(&f.draft)
	f.mu.Unlock()
}

// Set edits the draft and drops the server errors of the fields it touched,
// so a corrected input stops showing its old message.
func (f *Form[T]) Set(fn func(d *T), fields ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.draft)
	if len(f.errors) == 0 {
		return
	}
	bag := make(page.ErrorBag, len(f.errors))
	for k, v := range f.errors {
		bag[k] = v
	}
	for _, field := range fields {
		delete(bag, field)
	}
	f.errors = bag
}

// Reset restores the initial draft and clears errors.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	f.draft = f.initial
	f.errors = nil
	f.formError = ""
	f.mu.Unlock()
}

// Errors returns the field errors of the last submit.
func (f *Form[T]) Errors() page.ErrorBag {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errors
}

// Error returns the message for field, or "".
func (f *Form[T]) Error(field string) string {
	return f.Errors().Get(field)
}

// FormError is a message not tied to any field.
func (f *Form[T]) FormError() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.formError
}

func (f *Form[T]) setFormError(msg string) {
	f.mu.Lock()
	f.formError = msg
	f.mu.Unlock()
}

// Processing reports whether a submit is in flight; the submit control is
// disabled while it is.
func (f *Form[T]) Processing() bool { return f.processing.Load() }

// Submit sends the draft once. Field errors come back in the outcome and are
// kept on the form; a successful submit clears them.
func (f *Form[T]) Submit(ctx context.Context) (navigation.Outcome, error) {
	if !f.processing.CompareAndSwap(false, true) {
		return navigation.Outcome{}, ErrSubmitInFlight
	}
	defer f.processing.Store(false)

	data := f.Data()
	out, err := f.nav.Visit(ctx, f.method, f.url, data)
	if err != nil {
		return out, err
	}

	f.mu.Lock()
	f.errors = out.Errors
	f.formError = ""
	f.mu.Unlock()
	return out, nil
}
