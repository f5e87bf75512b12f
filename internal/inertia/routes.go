package inertia

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/storefront-web/pkg/page"
)

// RoutesFromApp exports every named route of app as the client route config.
// Fiber params (":id", ":id?") become "{id}" / "{id?}" placeholders.
func RoutesFromApp(app *fiber.App, baseURL string) page.RouteConfig {
	rc := page.RouteConfig{Base: baseURL, Routes: map[string]page.Route{}}

	for _, rt := range app.GetRoutes(true) {
		if rt.Name == "" || rt.Method == fiber.MethodHead {
			continue
		}
		r := rc.Routes[rt.Name]
		if r.URI == "" {
			r.URI = toURI(rt.Path)
		}
		if !contains(r.Methods, rt.Method) {
			r.Methods = append(r.Methods, rt.Method)
			sort.Strings(r.Methods)
		}
		rc.Routes[rt.Name] = r
	}
	return rc
}

func toURI(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		name := strings.TrimPrefix(s, ":")
		if strings.HasSuffix(name, "?") {
			segs[i] = "{" + strings.TrimSuffix(name, "?") + "?}"
		} else {
			segs[i] = "{" + name + "}"
		}
	}
	return strings.Join(segs, "/")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
