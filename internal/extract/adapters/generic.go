package adapters

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GenericAdapter is the fallback adapter for unknown domains. It prefers an
// explicit content container and otherwise gathers every paragraph.
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(rawURL string, contentType string) bool {
	return true
}

// Extract isolates the main text of doc.
func (a *GenericAdapter) Extract(doc *html.Node, rawURL string) Page {
	title, description := a.Head(doc)
	page := Page{Title: title, MetaDescription: description}

	containers := a.FindAll(doc, a.isContainer, a.IsBoilerplate)
	var best string
	for _, c := range containers {
		if text := a.paragraphs(c); len(text) > len(best) {
			best = text
		}
	}
	if best == "" {
		best = a.paragraphs(doc)
	}
	page.Text = best
	return page
}

func (a *GenericAdapter) isContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Article, atom.Main:
		return true
	}
	return a.GetAttribute(n, "role") == "main"
}

// paragraphs returns the <p> text under root, or the container's whole
// visible text when it has no paragraphs.
func (a *GenericAdapter) paragraphs(root *html.Node) string {
	ps := a.FindAll(root, isElement(atom.P), a.IsBoilerplate)
	if len(ps) == 0 {
		if root.Type == html.DocumentNode {
			return ""
		}
		return a.Text(root, a.IsBoilerplate)
	}
	blocks := make([]string, 0, len(ps))
	for _, p := range ps {
		blocks = append(blocks, a.Text(p, a.IsBoilerplate))
	}
	return joinBlocks(blocks)
}
