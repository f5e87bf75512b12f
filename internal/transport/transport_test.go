package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
)

const shell = `<!DOCTYPE html><html><head>
<meta name="csrf-token" content="tok-1">
</head><body><div id="app" data-page="{&#34;component&#34;:&#34;Home&#34;,&#34;props&#34;:{},&#34;url&#34;:&#34;/&#34;,&#34;version&#34;:&#34;v7&#34;}"></div></body></html>`

type redirects struct {
	mu    sync.Mutex
	paths []string
}

func (r *redirects) RedirectTo(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

type collected struct {
	mu  sync.Mutex
	out []flash.Notification
}

func (c *collected) Notify(n flash.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, n)
}

func newClient(t *testing.T, srv *httptest.Server, surface bool) (*Client, *test.Hook, *collected, *redirects) {
	t.Helper()
	log, hook := test.NewNullLogger()
	notes := &collected{}
	red := &redirects{}
	c, err := New(Config{
		BaseURL:          srv.URL,
		SurfaceForbidden: surface,
		Log:              log,
		Notifier:         notes,
	})
	require.NoError(t, err)
	c.SetRedirector(red)
	return c, hook, notes, red
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(shell))
	require.NoError(t, err)
	assert.Equal(t, "tok-1", doc.CSRFToken)
	require.NotNil(t, doc.Page)
	assert.Equal(t, "Home", doc.Page.Component)
	assert.Equal(t, "v7", doc.Page.Version)

	doc, err = ParseDocument(strings.NewReader(`<html><body>plain</body></html>`))
	require.NoError(t, err)
	assert.Empty(t, doc.CSRFToken)
	assert.Nil(t, doc.Page)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestBootstrapAndDefaultHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(page.HeaderPage) == "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, shell)
			return
		}
		got = r.Header.Clone()
		w.Header().Set(page.HeaderPage, "true")
		_ = json.NewEncoder(w).Encode(page.Page{Component: "Profile/Show", URL: r.URL.Path, Version: "v7"})
	}))
	defer srv.Close()

	c, hook, _, _ := newClient(t, srv, false)
	p, err := c.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home", p.Component)
	assert.Equal(t, "tok-1", c.CSRFToken())
	assert.Equal(t, "v7", c.Version())
	assert.Empty(t, hook.AllEntries())

	res, err := c.Do(context.Background(), http.MethodPost, "/profile", map[string]string{"a": "b"})
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Equal(t, "Profile/Show", res.Page.Component)

	assert.Equal(t, "tok-1", got.Get(page.HeaderCSRF))
	assert.Equal(t, page.RequestedWithAJAX, got.Get(page.HeaderRequestedWith))
	assert.Equal(t, "true", got.Get(page.HeaderPage))
	assert.Equal(t, "v7", got.Get(page.HeaderVersion))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestBootstrapWithoutTokenLogsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head></head><body><div id="app"></div></body></html>`)
	}))
	defer srv.Close()

	c, hook, _, _ := newClient(t, srv, false)
	_, err := c.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.CSRFToken())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "CSRF token not found")
}

func statusServer(code int, body string, header map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
}

func TestUnauthorizedRedirectsToLogin(t *testing.T) {
	srv := statusServer(http.StatusUnauthorized, `{"code":"UNAUTHORIZED"}`, nil)
	defer srv.Close()

	c, _, notes, red := newClient(t, srv, false)
	_, err := c.Do(context.Background(), http.MethodGet, "/profile", nil)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, []string{"/login"}, red.paths)
	assert.Empty(t, notes.out)
}

func TestForbiddenSurfacing(t *testing.T) {
	srv := statusServer(http.StatusForbidden, `{"code":"FORBIDDEN"}`, nil)
	defer srv.Close()

	// default: logged only
	c, hook, notes, red := newClient(t, srv, false)
	_, err := c.Do(context.Background(), http.MethodGet, "/admin/categories", nil)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Empty(t, notes.out)
	assert.Empty(t, red.paths)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	// surfaced
	c, _, notes, _ = newClient(t, srv, true)
	_, err = c.Do(context.Background(), http.MethodGet, "/admin/categories", nil)
	assert.True(t, errors.Is(err, ErrForbidden))
	require.Len(t, notes.out, 1)
	assert.Equal(t, flash.VariantDestructive, notes.out[0].Variant)
	assert.Equal(t, ForbiddenMessage, notes.out[0].Body)
}

func TestServerErrorLogsRedactedBody(t *testing.T) {
	srv := statusServer(http.StatusInternalServerError, `boom for ana@shop.test`, nil)
	defer srv.Close()

	c, hook, _, _ := newClient(t, srv, false)
	_, err := c.Do(context.Background(), http.MethodPut, "/admin/customers/1", map[string]any{})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.Code)
	assert.True(t, errors.Is(err, ErrServer))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "boom for [redacted email]", entry.Data["body"])
}

func TestValidationErrorsAreNotFailures(t *testing.T) {
	srv := statusServer(http.StatusUnprocessableEntity,
		`{"message":"Validation failed","errors":{"slug":"Slug already taken","name":["Required","Too long"]}}`, nil)
	defer srv.Close()

	c, _, _, _ := newClient(t, srv, false)
	res, err := c.Do(context.Background(), http.MethodPost, "/admin/categories", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, page.ErrorBag{"slug": "Slug already taken", "name": "Required"}, res.Errors)
}

func TestOtherClientErrors(t *testing.T) {
	srv := statusServer(http.StatusNotFound, `{"error":"Not Found","code":"NOT_FOUND"}`, nil)
	defer srv.Close()

	c, _, _, _ := newClient(t, srv, false)
	_, err := c.Do(context.Background(), http.MethodGet, "/missing", nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.NoError(t, errors.Unwrap(se))
}

func TestVersionConflict(t *testing.T) {
	srv := statusServer(http.StatusConflict, "", map[string]string{page.HeaderLocation: "/profile"})
	defer srv.Close()

	c, _, _, _ := newClient(t, srv, false)
	res, err := c.Do(context.Background(), http.MethodGet, "/profile", nil)
	require.NoError(t, err)
	assert.True(t, res.Conflict())
	assert.Equal(t, "/profile", res.Location)
}

func TestErrorMap(t *testing.T) {
	_, ok := ErrorMap([]byte(`not json`))
	assert.False(t, ok)
	_, ok = ErrorMap([]byte(`{"errors":"nope"}`))
	assert.False(t, ok)
	bag, ok := ErrorMap([]byte(`{"errors":{}}`))
	assert.True(t, ok)
	assert.False(t, bag.Any())
}
