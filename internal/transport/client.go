// Package transport is the runtime's HTTP layer: it bootstraps the CSRF token
// from the first document, stamps the default headers on every visit, and
// intercepts responses before any screen sees them.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/aldoetobex/storefront-web/pkg/flash"
	"github.com/aldoetobex/storefront-web/pkg/page"
	"github.com/aldoetobex/storefront-web/pkg/sanitize"
)

// ForbiddenMessage is shown when 403 surfacing is enabled.
const ForbiddenMessage = "You don't have permission to do that."

// maxLoggedBody caps how much of a failed response body is logged.
const maxLoggedBody = 2000

// Redirector performs a client-side navigation. The navigator implements it.
type Redirector interface {
	RedirectTo(ctx context.Context, path string) error
}

// Config configures a Client.
type Config struct {
	BaseURL          string
	LoginPath        string
	SurfaceForbidden bool
	Log              *logrus.Logger
	Notifier         flash.Notifier
	HTTPClient       *http.Client
}

// Response is an intercepted response that is a normal outcome for screens:
// a page, a field error map, or a version conflict.
type Response struct {
	Status   int
	Page     *page.Page
	Errors   page.ErrorBag
	Location string
	Body     []byte
}

// Conflict reports an asset-version mismatch; Location must be hard-reloaded.
func (r *Response) Conflict() bool {
	return r.Status == http.StatusConflict && r.Location != ""
}

// Client talks to the page host.
type Client struct {
	base             *url.URL
	http             *http.Client
	log              *logrus.Logger
	notifier         flash.Notifier
	loginPath        string
	surfaceForbidden bool

	mu         sync.RWMutex
	csrf       string
	version    string
	redirector Redirector
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("transport: invalid base url %q", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		jar, _ := cookiejar.New(nil)
		hc = &http.Client{Timeout: 30 * time.Second, Jar: jar}
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Client{
		base:             base,
		http:             hc,
		log:              cfg.Log,
		notifier:         cfg.Notifier,
		loginPath:        cfg.LoginPath,
		surfaceForbidden: cfg.SurfaceForbidden,
	}, nil
}

// SetRedirector installs the navigation used for 401 responses.
func (c *Client) SetRedirector(r Redirector) {
	c.mu.Lock()
	c.redirector = r
	c.mu.Unlock()
}

func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

func (c *Client) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Client) SetVersion(v string) {
	c.mu.Lock()
	c.version = v
	c.mu.Unlock()
}

// LoginPath is where 401 responses send the user.
func (c *Client) LoginPath() string { return c.loginPath }

/* ============================== Bootstrap =============================== */

// Bootstrap loads the root document once and reads the CSRF token from it.
func (c *Client) Bootstrap(ctx context.Context) (*page.Page, error) {
	return c.Load(ctx, "/")
}

// Load fetches path as a full HTML document (first load or hard reload) and
// refreshes the CSRF token and asset version from it.
func (c *Client) Load(ctx context.Context, path string) (*page.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxLoggedBody))
		return nil, &StatusError{Code: res.StatusCode, Body: string(raw)}
	}

	doc, err := ParseDocument(res.Body)
	if err != nil {
		return nil, err
	}
	c.adopt(doc, res.Request.URL.Path)
	return doc.Page, nil
}

func (c *Client) adopt(doc Document, from string) {
	if doc.CSRFToken == "" {
		c.log.WithField("url", from).Error(`CSRF token not found: missing <meta name="csrf-token">`)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if doc.CSRFToken != "" {
		c.csrf = doc.CSRFToken
	}
	if doc.Page != nil && doc.Page.Version != "" {
		c.version = doc.Page.Version
	}
}

/* ================================ Visits ================================ */

// Do sends one client-driven visit. body, when non-nil, is sent as JSON.
// Redirects are followed; the response of the final hop is intercepted.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), rdr)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req, body != nil)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return c.intercept(ctx, method, res, raw)
}

func (c *Client) applyHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "text/html, application/xhtml+xml")
	req.Header.Set(page.HeaderRequestedWith, page.RequestedWithAJAX)
	req.Header.Set(page.HeaderPage, "true")
	if v := c.Version(); v != "" {
		req.Header.Set(page.HeaderVersion, v)
	}
	if tok := c.CSRFToken(); tok != "" {
		req.Header.Set(page.HeaderCSRF, tok)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *Client) intercept(ctx context.Context, method string, res *http.Response, raw []byte) (*Response, error) {
	out := &Response{Status: res.StatusCode, Body: raw}
	path := res.Request.URL.Path
	fields := logrus.Fields{"method": method, "path": path, "status": res.StatusCode}

	switch code := res.StatusCode; {
	case code == http.StatusUnauthorized:
		c.log.WithFields(fields).Info("unauthenticated; redirecting to login")
		c.mu.RLock()
		r := c.redirector
		c.mu.RUnlock()
		if r != nil && path != c.loginPath {
			if err := r.RedirectTo(ctx, c.loginPath); err != nil {
				c.log.WithError(err).Warn("login redirect failed")
			}
		}
		return out, &StatusError{Code: code, Body: string(raw)}

	case code == http.StatusForbidden:
		c.log.WithFields(fields).Warn("forbidden")
		if c.surfaceForbidden && c.notifier != nil {
			c.notifier.Notify(flash.Notification{
				Kind:     flash.KindError,
				Title:    flash.Title(flash.KindError),
				Body:     ForbiddenMessage,
				Variant:  flash.VariantDestructive,
				Duration: flash.DurationFor(flash.KindError),
			})
		}
		return out, &StatusError{Code: code, Body: string(raw)}

	case code == http.StatusConflict && res.Header.Get(page.HeaderLocation) != "":
		out.Location = res.Header.Get(page.HeaderLocation)
		return out, nil

	case code >= 500:
		c.log.WithFields(fields).
			WithField("body", sanitize.RedactPII(sanitize.Summary(string(raw), maxLoggedBody))).
			Error("server error")
		return out, &StatusError{Code: code, Body: string(raw)}

	case code >= 400:
		if errs, ok := ErrorMap(raw); ok {
			out.Errors = errs
			return out, nil
		}
		c.log.WithFields(fields).Warn("request rejected")
		return out, &StatusError{Code: code, Body: string(raw)}
	}

	if res.Header.Get(page.HeaderPage) == "true" {
		var p page.Page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		out.Page = &p
		return out, nil
	}
	if strings.HasPrefix(res.Header.Get("Content-Type"), "text/html") {
		doc, err := ParseDocument(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		c.adopt(doc, path)
		out.Page = doc.Page
	}
	return out, nil
}

// ErrorMap extracts the field error map from a 4xx body. Both the flat
// {field: message} shape and {field: [messages]} are accepted; the first
// message of a list wins.
func ErrorMap(raw []byte) (page.ErrorBag, bool) {
	if !gjson.ValidBytes(raw) {
		return nil, false
	}
	errs := gjson.GetBytes(raw, "errors")
	if !errs.IsObject() {
		return nil, false
	}
	out := page.ErrorBag{}
	errs.ForEach(func(k, v gjson.Result) bool {
		if v.IsArray() {
			v = v.Get("0")
		}
		out[k.String()] = v.String()
		return true
	})
	return out, true
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}
