// Package navigation drives page visits: it signals start/finish to the
// lifecycle, sends the visit through the transport, commits the resulting
// page, and hands the page's flash payload to the bridge.
package navigation

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/aldoetobex/storefront-web/internal/transport"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// Outcome is the result of a visit that reached the server and came back
// with something screens understand.
type Outcome struct {
	Page          *page.Page
	Errors        page.ErrorBag
	Notifications []flash.Notification
}

// Failed reports whether the visit came back with field errors.
func (o Outcome) Failed() bool { return o.Errors.Any() }

// Navigator owns the current page.
type Navigator struct {
	client *transport.Client
	bridge *flash.Bridge
	life   *Lifecycle
	log    *logrus.Logger

	seq atomic.Uint64

	mu      sync.RWMutex
	current *page.Page
	visit   uint64
	subs    []func(*page.Page)
}

// New wires a navigator to client and bridge and installs it as the
// client's login redirector.
func New(client *transport.Client, bridge *flash.Bridge, log *logrus.Logger) *Navigator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	n := &Navigator{
		client: client,
		bridge: bridge,
		life:   &Lifecycle{},
		log:    log,
	}
	client.SetRedirector(n)
	return n
}

// Lifecycle returns the start/finish registry.
func (n *Navigator) Lifecycle() *Lifecycle { return n.life }

// Subscribe registers fn to run after every committed page.
func (n *Navigator) Subscribe(fn func(*page.Page)) {
	n.mu.Lock()
	n.subs = append(n.subs, fn)
	n.mu.Unlock()
}

// Current returns the committed page, or nil before Start.
func (n *Navigator) Current() *page.Page {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Start bootstraps the transport from the root document and commits the
// page it carries as the first visit.
func (n *Navigator) Start(ctx context.Context) (out Outcome, err error) {
	v := n.begin(http.MethodGet, "/")
	defer func() { n.life.finish(v, err) }()

	p, err := n.client.Bootstrap(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("bootstrap: %w", err)
	}
	return n.commit(v.ID, p), nil
}

// Visit sends one navigation. Field errors come back in the Outcome, not as
// an error; transport failures (401, 403, 5xx, network) are errors.
func (n *Navigator) Visit(ctx context.Context, method, url string, data any) (out Outcome, err error) {
	v := n.begin(method, url)
	defer func() { n.life.finish(v, err) }()

	res, err := n.client.Do(ctx, method, url, data)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case res.Conflict():
		n.log.WithField("location", res.Location).Info("asset version changed; reloading")
		p, err := n.client.Load(ctx, res.Location)
		if err != nil {
			return Outcome{}, err
		}
		return n.commit(v.ID, p), nil

	case res.Errors != nil:
		return n.withErrors(res.Errors), nil

	case res.Page != nil:
		return n.commit(v.ID, res.Page), nil
	}
	return Outcome{}, fmt.Errorf("%s %s: response carried no page", method, url)
}

func (n *Navigator) Get(ctx context.Context, url string) (Outcome, error) {
	return n.Visit(ctx, http.MethodGet, url, nil)
}

func (n *Navigator) Post(ctx context.Context, url string, data any) (Outcome, error) {
	return n.Visit(ctx, http.MethodPost, url, data)
}

func (n *Navigator) Put(ctx context.Context, url string, data any) (Outcome, error) {
	return n.Visit(ctx, http.MethodPut, url, data)
}

// RedirectTo navigates to path; the transport calls it on 401.
func (n *Navigator) RedirectTo(ctx context.Context, path string) error {
	_, err := n.Get(ctx, path)
	return err
}

// Rerender re-observes the current page under the current visit. The bridge
// stays quiet because neither the visit nor the payload changed.
func (n *Navigator) Rerender() []flash.Notification {
	n.mu.RLock()
	p, visit := n.current, n.visit
	n.mu.RUnlock()
	if p == nil {
		return nil
	}
	return n.bridge.Observe(visit, p.Props.Flash())
}

// URL builds the path of a named route from the current page's route config.
func (n *Navigator) URL(name string, params map[string]string) (string, error) {
	p := n.Current()
	if p == nil {
		return "", fmt.Errorf("route %q: no page loaded", name)
	}
	return p.Props.Routes().URL(name, params)
}

func (n *Navigator) begin(method, url string) Visit {
	v := Visit{ID: n.seq.Add(1), Method: method, URL: url}
	n.life.start(v)
	return v
}

// commit makes p the current page and feeds its flash to the bridge. Pages
// are committed in arrival order; a late response still wins.
func (n *Navigator) commit(visit uint64, p *page.Page) Outcome {
	if p == nil {
		return Outcome{}
	}
	n.mu.Lock()
	n.current, n.visit = p, visit
	subs := append(([]func(*page.Page))(nil), n.subs...)
	n.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
	return Outcome{
		Page:          p,
		Errors:        p.Props.Errors(),
		Notifications: n.bridge.Observe(visit, p.Props.Flash()),
	}
}

// withErrors attaches a field error map to the current page. The flash
// payload was already consumed by the visit that produced that page, so the
// bridge is not consulted.
func (n *Navigator) withErrors(errs page.ErrorBag) Outcome {
	n.mu.Lock()
	var updated *page.Page
	if n.current != nil {
		cp := *n.current
		cp.Props = make(page.Props, len(n.current.Props))
		for k, v := range n.current.Props {
			cp.Props[k] = v
		}
		if err := cp.Props.Set(page.PropErrors, errs); err != nil {
			n.log.WithError(err).Warn("errors prop not set")
		}
		n.current = &cp
		updated = &cp
	}
	subs := append(([]func(*page.Page))(nil), n.subs...)
	n.mu.Unlock()

	if updated != nil {
		for _, fn := range subs {
			fn(updated)
		}
	}
	return Outcome{Page: updated, Errors: errs}
}
