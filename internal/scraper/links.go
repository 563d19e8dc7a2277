package scraper

import (
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// ParseExtensions splits a comma-separated list such as "pdf, DOCX" into
// lowercase extensions without dots. An empty list yields ["pdf"].
func ParseExtensions(s string) []string {
	return normalizeExtensions(strings.Split(s, ","))
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return []string{"pdf"}
	}
	return out
}

// findLinks returns the absolute http(s) URLs of <a href> elements whose path
// ends in one of exts, resolved against base, deduplicated in document order.
func findLinks(r io.Reader, base *url.URL, exts []string) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var (
		links []string
		seen  = map[string]bool{}
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if u := resolveLink(base, attr.Val, exts); u != "" && !seen[u] {
					seen[u] = true
					links = append(links, u)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func resolveLink(base *url.URL, href string, exts []string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := base.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	u.Fragment = ""
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	for _, e := range exts {
		if ext == e {
			return u.String()
		}
	}
	return ""
}

// fileName returns the last path segment of u, or "documento.pdf".
func fileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "documento.pdf"
	}
	return name
}
