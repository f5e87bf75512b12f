// Package flash carries the one-shot, per-response notification strings a page
// host attaches to every page, and turns them into user-facing notifications.
package flash

import "time"

/* =============================== Payload ================================ */

// Kind is a flash slot / severity.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Kinds lists every slot in emission order.
var Kinds = []Kind{KindSuccess, KindError, KindWarning, KindInfo}

// Payload is the flash bag of a single server response.
// An empty string means the slot is absent.
type Payload struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Info    string `json:"info,omitempty"`
}

// Get returns the slot value for k.
func (p Payload) Get(k Kind) string {
	switch k {
	case KindSuccess:
		return p.Success
	case KindError:
		return p.Error
	case KindWarning:
		return p.Warning
	case KindInfo:
		return p.Info
	default:
		return ""
	}
}

// With returns a copy of p with slot k set to msg.
func (p Payload) With(k Kind, msg string) Payload {
	switch k {
	case KindSuccess:
		p.Success = msg
	case KindError:
		p.Error = msg
	case KindWarning:
		p.Warning = msg
	case KindInfo:
		p.Info = msg
	}
	return p
}

// Empty reports whether no slot is set.
func (p Payload) Empty() bool {
	return p == Payload{}
}

/* ============================ Notification ============================== */

// Variant is the presentation style of a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// DefaultDuration is how long a success or info notification stays before
// it dismisses itself.
const DefaultDuration = 5 * time.Second

// Errors and warnings stay up longer than the default.
var durations = map[Kind]time.Duration{
	KindError:   8 * time.Second,
	KindWarning: 6 * time.Second,
}

// DurationFor returns how long a notification of kind k stays visible.
func DurationFor(k Kind) time.Duration {
	if d, ok := durations[k]; ok {
		return d
	}
	return DefaultDuration
}

// Notification is a transient toast derived from one non-empty flash slot.
type Notification struct {
	Kind     Kind          `json:"kind"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Variant  Variant       `json:"variant"`
	Duration time.Duration `json:"duration"`
}

var titles = map[Kind]string{
	KindSuccess: "Success",
	KindError:   "Error",
	KindWarning: "Warning",
	KindInfo:    "Info",
}

// Title returns the fixed label for k.
func Title(k Kind) string { return titles[k] }

// VariantFor maps a severity to its presentation style.
func VariantFor(k Kind) Variant {
	if k == KindError {
		return VariantDestructive
	}
	return VariantDefault
}

// Notifications converts every non-empty slot of p, in emission order.
func Notifications(p Payload) []Notification {
	out := make([]Notification, 0, len(Kinds))
	for _, k := range Kinds {
		body := p.Get(k)
		if body == "" {
			continue
		}
		out = append(out, Notification{
			Kind:     k,
			Title:    Title(k),
			Body:     body,
			Variant:  VariantFor(k),
			Duration: DurationFor(k),
		})
	}
	return out
}
