// Package toast holds the notifications the flash bridge produces until they
// dismiss themselves.
package toast

import (
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/aldoetobex/storefront-web/pkg/flash"
)

// Limit is how many toasts the tray keeps; the oldest is dropped first.
const Limit = 5

// Toast is one queued notification.
type Toast struct {
	ID int
	flash.Notification
	Created time.Time
}

// Expired reports whether the toast outlived its duration at now.
func (t Toast) Expired(now time.Time) bool {
	return t.Duration > 0 && !now.Before(t.Created.Add(t.Duration))
}

// Tray is a flash.Notifier. Notify never blocks.
type Tray struct {
	mu    sync.Mutex
	items []Toast
	next  int
	now   func() time.Time
}

func NewTray() *Tray {
	return &Tray{now: time.Now}
}

// Notify queues n.
func (t *Tray) Notify(n flash.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	t.items = append(t.items, Toast{ID: t.next, Notification: n, Created: t.now()})
	if len(t.items) > Limit {
		t.items = append([]Toast(nil), t.items[len(t.items)-Limit:]...)
	}
}

// Active returns the toasts still showing, dropping expired ones.
func (t *Tray) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	kept := t.items[:0]
	for _, it := range t.items {
		if !it.Expired(now) {
			kept = append(kept, it)
		}
	}
	t.items = kept
	return append([]Toast(nil), kept...)
}

// Dismiss removes a toast early.
func (t *Tray) Dismiss(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, it := range t.items {
		if it.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

// Drain returns every queued toast and empties the tray.
func (t *Tray) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.items
	t.items = nil
	return out
}

// Render draws the active toasts.
func (t *Tray) Render() templ.Component {
	return toaster(t.Active())
}
