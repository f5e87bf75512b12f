package navigation_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/storefront-web/internal/auth"
	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/internal/navigation"
	"github.com/aldoetobex/storefront-web/internal/progress"
	"github.com/aldoetobex/storefront-web/internal/toast"
	"github.com/aldoetobex/storefront-web/internal/transport"
	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
	"github.com/aldoetobex/storefront-web/pkg/validation"
)

// startHost runs a page host on a loopback listener and returns its base URL.
func startHost(t *testing.T) string {
	t.Helper()
	log, _ := test.NewNullLogger()

	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler(log)})
	app.Use(csrf.New(csrf.Config{
		KeyLookup:  "header:" + page.HeaderCSRF,
		ContextKey: inertia.CSRFContextKey,
	}))
	pages := inertia.New(inertia.Config{Version: "v1", Store: session.New(), Log: log})
	app.Use(pages.Middleware())

	app.Get("/", func(c *fiber.Ctx) error { return pages.Render(c, "Home", nil) }).Name("home")
	app.Get("/login", func(c *fiber.Ctx) error { return pages.Render(c, "Auth/Login", nil) }).Name("login")
	app.Post("/notify", func(c *fiber.Ctx) error {
		var in map[string]string
		if err := c.BodyParser(&in); err != nil {
			return fiber.ErrBadRequest
		}
		for _, k := range flash.Kinds {
			if msg := in[string(k)]; msg != "" {
				if err := pages.Flash(c, k, msg); err != nil {
					return err
				}
			}
		}
		return pages.Redirect(c, "/")
	}).Name("notify")
	app.Post("/admin/categories", func(c *fiber.Ctx) error {
		return validation.Fields(c, map[string]string{"slug": "Slug already taken"})
	}).Name("admin.categories.store")
	app.Get("/profile", auth.RequireAuth("/login"), func(c *fiber.Ctx) error { return nil }).Name("profile.show")
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("kaboom") })
	pages.SetRoutes(inertia.RoutesFromApp(app, ""))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

type runtime struct {
	nav      *navigation.Navigator
	client   *transport.Client
	tray     *toast.Tray
	progress *progress.Indicator

	mu     sync.Mutex
	events []string
}

func (r *runtime) record(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *runtime) takeEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func newRuntime(t *testing.T, base string) *runtime {
	t.Helper()
	log, _ := test.NewNullLogger()
	tray := toast.NewTray()
	client, err := transport.New(transport.Config{BaseURL: base, Log: log, Notifier: tray})
	require.NoError(t, err)

	r := &runtime{client: client, tray: tray}
	r.nav = navigation.New(client, flash.NewBridge(tray), log)
	r.progress = progress.Attach(r.nav.Lifecycle())
	r.nav.Lifecycle().OnStart(func(v navigation.Visit) {
		r.record("start " + v.URL)
	})
	r.nav.Lifecycle().OnFinish(func(v navigation.Visit, err error) {
		if err != nil {
			r.record("finish " + v.URL + " error")
			return
		}
		r.record("finish " + v.URL)
	})
	return r
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestStartReadsTokenAndCommitsFirstPage(t *testing.T) {
	r := newRuntime(t, startHost(t))

	out, err := r.nav.Start(ctx(t))
	require.NoError(t, err)
	assert.Equal(t, "Home", out.Page.Component)
	assert.Empty(t, out.Notifications)
	assert.NotEmpty(t, r.client.CSRFToken())
	assert.Equal(t, "v1", r.client.Version())
	assert.False(t, r.progress.Loading())
	assert.Equal(t, []string{"start /", "finish /"}, r.takeEvents())

	u, err := r.nav.URL("admin.categories.store", nil)
	require.NoError(t, err)
	assert.Equal(t, "/admin/categories", u)
}

func TestFlashFiresOncePerNavigation(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)

	payload := map[string]string{"info": "Heads up", "success": "Saved", "error": "Payment failed"}
	out, err := r.nav.Post(ctx(t), "/notify", payload)
	require.NoError(t, err)
	require.Len(t, out.Notifications, 3)
	assert.Equal(t, []string{"Success", "Error", "Info"},
		[]string{out.Notifications[0].Title, out.Notifications[1].Title, out.Notifications[2].Title})
	assert.Equal(t, flash.VariantDestructive, out.Notifications[1].Variant)
	assert.Len(t, r.tray.Active(), 3)

	// re-render of the same visit: nothing new
	assert.Empty(t, r.nav.Rerender())
	assert.Len(t, r.tray.Drain(), 3)

	// same strings, new navigation: fires again
	out, err = r.nav.Post(ctx(t), "/notify", payload)
	require.NoError(t, err)
	assert.Len(t, out.Notifications, 3)

	// plain visit afterwards: flash was consumed server-side
	out, err = r.nav.Get(ctx(t), "/")
	require.NoError(t, err)
	assert.Empty(t, out.Notifications)
}

func TestSingleErrorFlash(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)

	out, err := r.nav.Post(ctx(t), "/notify", map[string]string{"error": "Payment failed"})
	require.NoError(t, err)
	require.Len(t, out.Notifications, 1)
	n := out.Notifications[0]
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, "Payment failed", n.Body)
	assert.Equal(t, flash.VariantDestructive, n.Variant)
}

func TestValidationErrorsAttachToCurrentPage(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)
	r.takeEvents()

	out, err := r.nav.Post(ctx(t), "/admin/categories", map[string]any{"name": "Shoes", "parent_id": nil})
	require.NoError(t, err)
	assert.True(t, out.Failed())
	assert.Equal(t, "Slug already taken", out.Errors.Get("slug"))
	assert.Empty(t, out.Errors.Get("name"))
	assert.Empty(t, out.Notifications)

	cur := r.nav.Current()
	assert.Equal(t, "Home", cur.Component)
	assert.Equal(t, "Slug already taken", cur.Props.Errors().Get("slug"))

	assert.False(t, r.progress.Loading())
	assert.Equal(t, []string{"start /admin/categories", "finish /admin/categories"}, r.takeEvents())
}

func TestUnauthorizedNavigatesToLogin(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)
	r.takeEvents()

	_, err = r.nav.Get(ctx(t), "/profile")
	assert.True(t, errors.Is(err, transport.ErrUnauthorized))
	assert.Equal(t, "Auth/Login", r.nav.Current().Component)
	assert.False(t, r.progress.Loading())
	assert.Equal(t, []string{
		"start /profile", "start /login", "finish /login", "finish /profile error",
	}, r.takeEvents())
}

func TestServerErrorStillFinishes(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)
	r.takeEvents()

	_, err = r.nav.Get(ctx(t), "/boom")
	assert.True(t, errors.Is(err, transport.ErrServer))
	assert.False(t, r.progress.Loading())
	assert.Equal(t, "Home", r.nav.Current().Component)
	assert.Equal(t, []string{"start /boom", "finish /boom error"}, r.takeEvents())
}

func TestStaleVersionReloads(t *testing.T) {
	r := newRuntime(t, startHost(t))
	_, err := r.nav.Start(ctx(t))
	require.NoError(t, err)

	r.client.SetVersion("old")
	out, err := r.nav.Get(ctx(t), "/login")
	require.NoError(t, err)
	assert.Equal(t, "Auth/Login", out.Page.Component)
	assert.Equal(t, "v1", r.client.Version())
}
