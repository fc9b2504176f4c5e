// Package adapters isolates the readable text of a page. Site-specific
// adapters know where a site keeps its body copy; the generic adapter
// handles everything else.
package adapters

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is what an adapter recovers from an HTML document.
type Page struct {
	Title           string
	MetaDescription string
	Text            string
}

// Adapter extracts a Page from a parsed document.
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter understands pages from rawURL
	CanHandle(rawURL string, contentType string) bool

	// Extract returns the page title, meta description and main text
	Extract(doc *html.Node, rawURL string) Page
}

// Registry manages domain adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}
	registry.Register(NewWikipediaAdapter())
	registry.Register(NewLegalAdapter())
	registry.generic = NewGenericAdapter()
	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(rawURL string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL, contentType) {
			return adapter
		}
	}
	return r.generic
}

// boilerplate lists subtrees that never hold body copy.
var boilerplate = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Template: true,
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// ParseHTML parses HTML string into a node tree
func (b *BaseAdapter) ParseHTML(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// Text returns the visible text under n with whitespace collapsed. Subtrees
// for which skip returns true are left out.
func (b *BaseAdapter) Text(n *html.Node, skip func(*html.Node) bool) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skip != nil && skip(node) {
			return
		}
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
			buf.WriteByte(' ')
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// IsBoilerplate reports whether n is navigation, chrome or script.
func (b *BaseAdapter) IsBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == 0 && n.Data == "svg" {
		return true
	}
	return boilerplate[n.DataAtom]
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindAll finds all nodes matching a predicate, not descending into matches
// or into subtrees rejected by skip.
func (b *BaseAdapter) FindAll(n *html.Node, predicate func(*html.Node) bool, skip func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if skip != nil && skip(node) {
			return
		}
		if predicate(node) {
			results = append(results, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate in document order
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := b.FindFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

// Head returns the document title and meta description.
func (b *BaseAdapter) Head(doc *html.Node) (title, description string) {
	if t := b.FindFirst(doc, isElement(atom.Title)); t != nil {
		title = b.Text(t, nil)
	}
	meta := b.FindFirst(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return false
		}
		name := strings.ToLower(b.GetAttribute(n, "name"))
		prop := strings.ToLower(b.GetAttribute(n, "property"))
		return name == "description" || prop == "og:description"
	})
	if meta != nil {
		description = strings.Join(strings.Fields(b.GetAttribute(meta, "content")), " ")
	}
	return title, description
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	}
}

// joinBlocks joins non-empty text blocks as paragraphs.
func joinBlocks(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
