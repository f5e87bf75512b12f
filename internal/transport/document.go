package transport

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/aldoetobex/storefront-web/pkg/page"
)

// Document is what a first-load HTML shell carries.
type Document struct {
	CSRFToken string
	Page      *page.Page
}

// ParseDocument reads the csrf meta tag and the data-page attribute of the
// app root. A missing token is not an error here; Bootstrap logs it.
func ParseDocument(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}

	var doc Document
	var rawPage string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if attr(n, "name") == "csrf-token" && doc.CSRFToken == "" {
					doc.CSRFToken = attr(n, "content")
				}
			default:
				if rawPage == "" && attr(n, "id") == "app" {
					rawPage = attr(n, "data-page")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if rawPage != "" {
		var p page.Page
		if err := json.Unmarshal([]byte(rawPage), &p); err != nil {
			return doc, fmt.Errorf("decode data-page: %w", err)
		}
		doc.Page = &p
	}
	return doc, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
