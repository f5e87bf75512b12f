// Package inertia renders storefront pages as either an HTML shell (first load)
// or a JSON page object (client-driven visits), and attaches the shared props
// every page carries: auth, flash, errors and the route config.
package inertia

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus"

	"github.com/aldoetobex/storefront-web/internal/metrics"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

// CSRFContextKey is where the csrf middleware stores the token for this request.
const CSRFContextKey = "csrf"

const flashPrefix = "flash."

// SharedFunc adds request-scoped props (e.g. the signed-in user) to every page.
type SharedFunc func(c *fiber.Ctx, props page.Props) error

// Config configures a Renderer.
type Config struct {
	Version string
	Title   string
	Store   *session.Store
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// Renderer builds page responses.
type Renderer struct {
	version string
	title   string
	store   *session.Store
	log     *logrus.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	routes page.RouteConfig
	shared []SharedFunc
}

func New(cfg Config) *Renderer {
	if cfg.Title == "" {
		cfg.Title = "Storefront"
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Renderer{
		version: cfg.Version,
		title:   cfg.Title,
		store:   cfg.Store,
		log:     cfg.Log,
		metrics: cfg.Metrics,
	}
}

// Share registers a shared-props hook. Call during setup only.
func (r *Renderer) Share(fn SharedFunc) {
	r.mu.Lock()
	r.shared = append(r.shared, fn)
	r.mu.Unlock()
}

// SetRoutes publishes the route config sent as the `ziggy` prop.
func (r *Renderer) SetRoutes(rc page.RouteConfig) {
	r.mu.Lock()
	r.routes = rc
	r.mu.Unlock()
}

// Version returns the asset version pages are stamped with.
func (r *Renderer) Version() string { return r.version }

// IsPageRequest reports whether the request came from the client runtime.
func IsPageRequest(c *fiber.Ctx) bool {
	return c.Get(page.HeaderPage) == "true"
}

/* ============================== Middleware ============================== */

// Middleware marks responses as varying on the page header and forces a full
// reload when a client visit carries a stale asset version.
func (r *Renderer) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Vary(page.HeaderPage)
		if !IsPageRequest(c) {
			return c.Next()
		}
		if c.Method() == fiber.MethodGet {
			if v := c.Get(page.HeaderVersion); v != "" && v != r.version {
				c.Set(page.HeaderLocation, c.OriginalURL())
				return c.SendStatus(fiber.StatusConflict)
			}
		}
		return c.Next()
	}
}

/* ================================ Render ================================ */

// Render responds with component and its props merged over the shared props.
func (r *Renderer) Render(c *fiber.Ctx, component string, data fiber.Map) error {
	p, err := r.buildPage(c, component, data)
	if err != nil {
		return err
	}

	if IsPageRequest(c) {
		c.Set(page.HeaderPage, "true")
		r.metrics.PageRendered(component, "json")
		return c.JSON(p)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	token, _ := c.Locals(CSRFContextKey).(string)
	if token == "" {
		r.log.WithField("path", c.Path()).Warn("rendering shell without csrf token")
	}
	r.metrics.PageRendered(component, "html")
	c.Type("html", "utf-8")
	return Shell(r.title, token, body).Render(c.UserContext(), c.Response().BodyWriter())
}

func (r *Renderer) buildPage(c *fiber.Ctx, component string, data fiber.Map) (page.Page, error) {
	props := page.Props{}

	r.mu.RLock()
	routes := r.routes
	shared := append([]SharedFunc(nil), r.shared...)
	r.mu.RUnlock()

	if err := props.Set(page.PropAuth, page.Auth{}); err != nil {
		return page.Page{}, err
	}
	for _, fn := range shared {
		if err := fn(c, props); err != nil {
			return page.Page{}, err
		}
	}
	if err := props.Set(page.PropFlash, r.pullFlash(c)); err != nil {
		return page.Page{}, err
	}
	if err := props.Set(page.PropErrors, page.ErrorBag{}); err != nil {
		return page.Page{}, err
	}
	if err := props.Set(page.PropRoutes, routes); err != nil {
		return page.Page{}, err
	}
	for k, v := range data {
		if err := props.Set(k, v); err != nil {
			return page.Page{}, err
		}
	}

	return page.Page{
		Component: component,
		Props:     props,
		URL:       c.OriginalURL(),
		Version:   r.version,
	}, nil
}

/* ================================ Flash ================================= */

// Flash queues msg under kind for the next rendered page.
func (r *Renderer) Flash(c *fiber.Ctx, kind flash.Kind, msg string) error {
	sess, err := r.store.Get(c)
	if err != nil {
		return err
	}
	sess.Set(flashPrefix+string(kind), msg)
	return sess.Save()
}

// pullFlash reads and clears the queued flash so it is delivered exactly once.
func (r *Renderer) pullFlash(c *fiber.Ctx) flash.Payload {
	var out flash.Payload
	if r.store == nil {
		return out
	}
	sess, err := r.store.Get(c)
	if err != nil {
		r.log.WithError(err).Warn("flash: session unavailable")
		return out
	}
	dirty := false
	for _, k := range flash.Kinds {
		key := flashPrefix + string(k)
		if v, ok := sess.Get(key).(string); ok {
			out = out.With(k, v)
			sess.Delete(key)
			dirty = true
		}
	}
	if dirty {
		if err := sess.Save(); err != nil {
			r.log.WithError(err).Warn("flash: session save failed")
		}
	}
	return out
}

/* ============================== Redirects =============================== */

// Redirect sends the client to another page. Non-GET requests get a 303 so the
// follow-up request is always a GET.
func (r *Renderer) Redirect(c *fiber.Ctx, to string) error {
	if c.Method() == fiber.MethodGet {
		return c.Redirect(to, fiber.StatusFound)
	}
	return c.Redirect(to, fiber.StatusSeeOther)
}

// Back redirects to the Referer, or to fallback when there is none.
func (r *Renderer) Back(c *fiber.Ctx, fallback string) error {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" || !strings.HasPrefix(ref, c.BaseURL()) {
		ref = fallback
	}
	return r.Redirect(c, ref)
}
