package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WikipediaAdapter extracts article prose from Wikipedia pages, leaving out
// citation markers, infoboxes, navboxes and reference lists.
type WikipediaAdapter struct {
	BaseAdapter
	noiseClasses []string
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		noiseClasses: []string{
			"reference", "mw-editsection", "infobox", "navbox", "reflist",
			"references", "hatnote", "thumb", "metadata", "mw-empty-elt",
			"sidebar", "noprint",
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia article URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return (host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")) &&
		strings.HasPrefix(u.Path, "/wiki/")
}

// Extract returns the lead and body paragraphs of the article.
func (a *WikipediaAdapter) Extract(doc *html.Node, rawURL string) Page {
	title, description := a.Head(doc)
	if h := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "firstHeading"
	}); h != nil {
		title = a.Text(h, nil)
	} else {
		title = strings.TrimSuffix(title, " - Wikipedia")
	}

	content := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Div &&
			(a.HasClass(n, "mw-parser-output") || a.GetAttribute(n, "id") == "mw-content-text")
	})
	if content == nil {
		content = doc
	}

	ps := a.FindAll(content, isElement(atom.P), a.isNoise)
	blocks := make([]string, 0, len(ps))
	for _, p := range ps {
		blocks = append(blocks, a.Text(p, a.isNoise))
	}

	return Page{Title: title, MetaDescription: description, Text: joinBlocks(blocks)}
}

func (a *WikipediaAdapter) isNoise(n *html.Node) bool {
	if a.IsBoilerplate(n) {
		return true
	}
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.Table || n.DataAtom == atom.Sup && a.HasClass(n, "reference") {
		return true
	}
	for _, class := range a.noiseClasses {
		if a.HasClass(n, class) {
			return true
		}
	}
	return false
}
