package llm

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// maxPageText bounds the visible text forwarded to the model.
const maxPageText = 12000

// page is the part of a recipe web page worth sending to the model.
type page struct {
	Title      string
	Text       string
	Images     []string
	LinkedData []string
}

// parsePage collects the title, visible text, absolute image URLs and JSON-LD blocks of an HTML document.
func parsePage(r io.Reader, base *url.URL) (page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return page{}, err
	}
	var (
		out  page
		text strings.Builder
		seen = map[string]bool{}
	)
	addImage := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := ref.String()
		if base != nil {
			abs = base.ResolveReference(ref).String()
		}
		if !seen[abs] {
			seen[abs] = true
			out.Images = append(out.Images, abs)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "style", "noscript", "svg", "nav", "footer":
				return
			case "script":
				if attr(n, "type") == "application/ld+json" && n.FirstChild != nil {
					out.LinkedData = append(out.LinkedData, strings.TrimSpace(n.FirstChild.Data))
				}
				return
			case "title":
				if n.FirstChild != nil && out.Title == "" {
					out.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "meta":
				if attr(n, "property") == "og:image" {
					addImage(attr(n, "content"))
				}
			case "img":
				addImage(attr(n, "src"))
			}
		}
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				if text.Len() > 0 {
					text.WriteByte('\n')
				}
				text.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	out.Text = truncateRunes(text.String(), maxPageText)
	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
