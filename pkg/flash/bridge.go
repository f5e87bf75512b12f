package flash

import "sync"

// Notifier receives notifications produced by the bridge. Implementations must
// not block; the bridge calls Notify while the page is being committed.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Bridge observes the flash payload of the current page and emits one
// notification per non-empty slot, once per distinct (visit, payload) pair.
//
// The visit number distinguishes a new navigation from a re-render: two
// navigations carrying identical strings both fire, while observing the same
// visit again with the same payload does not.
type Bridge struct {
	mu       sync.Mutex
	notifier Notifier
	seen     bool
	visit    uint64
	last     Payload
}

// NewBridge returns a bridge that delivers to n.
func NewBridge(n Notifier) *Bridge {
	return &Bridge{notifier: n}
}

// Observe processes payload p attached to navigation visit.
// It returns the notifications that were emitted.
func (b *Bridge) Observe(visit uint64, p Payload) []Notification {
	b.mu.Lock()
	if b.seen && b.visit == visit && b.last == p {
		b.mu.Unlock()
		return nil
	}
	b.seen, b.visit, b.last = true, visit, p
	b.mu.Unlock()

	out := Notifications(p)
	if b.notifier != nil {
		for _, n := range out {
			b.notifier.Notify(n)
		}
	}
	return out
}
