package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LegalAdapter reads statute and government notice pages. Their provisions
// sit in list items and definition lists as often as in paragraphs.
type LegalAdapter struct {
	BaseAdapter
	legalDomains []string
	legalPaths   []string
}

// NewLegalAdapter creates a new legal document adapter
func NewLegalAdapter() *LegalAdapter {
	return &LegalAdapter{
		legalDomains: []string{
			"legislation.gov.uk",
			"law.cornell.edu",
			"justice.gov",
			"indiacode.nic.in",
			"eur-lex.europa.eu",
			"congress.gov",
		},
		legalPaths: []string{"/statute", "/legislation", "/regulation", "/uscode", "/act/"},
	}
}

// Name returns the adapter name
func (a *LegalAdapter) Name() string {
	return "legal"
}

// CanHandle checks if this is a legal document URL
func (a *LegalAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range a.legalDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	path := strings.ToLower(u.Path)
	for _, p := range a.legalPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// Extract returns the provisions in document order.
func (a *LegalAdapter) Extract(doc *html.Node, rawURL string) Page {
	title, description := a.Head(doc)

	content := a.FindFirst(doc, isElement(atom.Main))
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode &&
				(n.DataAtom == atom.Article || a.GetAttribute(n, "role") == "main" || a.GetAttribute(n, "id") == "content")
		})
	}
	if content == nil {
		content = doc
	}

	nodes := a.FindAll(content, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		switch n.DataAtom {
		case atom.P, atom.Li, atom.Dd, atom.Dt, atom.Blockquote:
			return true
		}
		return false
	}, a.IsBoilerplate)

	blocks := make([]string, 0, len(nodes))
	for _, n := range nodes {
		blocks = append(blocks, a.Text(n, a.IsBoilerplate))
	}

	return Page{Title: title, MetaDescription: description, Text: joinBlocks(blocks)}
}
