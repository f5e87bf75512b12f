package page

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrUnknownRoute is returned when a route name is not in the config.
var ErrUnknownRoute = errors.New("unknown route")

// Route is one named route exported to the client.
type Route struct {
	URI     string   `json:"uri"`
	Methods []string `json:"methods"`
}

// RouteConfig is the `ziggy` prop: every named route of the page host.
type RouteConfig struct {
	Base   string           `json:"url"`
	Routes map[string]Route `json:"routes"`
}

var reParam = regexp.MustCompile(`\{([A-Za-z0-9_]+)\??\}`)

// URL builds the path for name, substituting {param} placeholders.
func (rc RouteConfig) URL(name string, params map[string]string) (string, error) {
	r, ok := rc.Routes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}

	var missing []string
	path := reParam.ReplaceAllStringFunc(r.URI, func(m string) string {
		key := reParam.FindStringSubmatch(m)[1]
		v, ok := params[key]
		if !ok || v == "" {
			if !strings.HasSuffix(m, "?}") {
				missing = append(missing, key)
			}
			return ""
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("route %s: missing params %s", name, strings.Join(missing, ", "))
	}
	path = strings.TrimSuffix(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// Has reports whether name is a known route.
func (rc RouteConfig) Has(name string) bool {
	_, ok := rc.Routes[name]
	return ok
}
