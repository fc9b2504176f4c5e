package adapters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsPage = `<!DOCTYPE html>
<html><head>
<title>Budget passed | Example News</title>
<meta name="description" content="The  budget passed on Tuesday.">
<script>var tracking = "do not read";</script>
</head><body>
<header><p>Subscribe to our newsletter</p></header>
<nav><a href="/">Home</a></nav>
<article>
  <h1>Budget passed</h1>
  <p>The parliament passed the budget on Tuesday.</p>
  <aside><p>Related: other stories</p></aside>
  <p>Opposition members walked out.</p>
</article>
<footer><p>Copyright 2026</p></footer>
</body></html>`

func TestGenericAdapter_PrefersArticle(t *testing.T) {
	a := NewGenericAdapter()
	doc, err := a.ParseHTML(newsPage)
	require.NoError(t, err)

	page := a.Extract(doc, "https://news.example.com/budget")

	assert.Equal(t, "Budget passed | Example News", page.Title)
	assert.Equal(t, "The budget passed on Tuesday.", page.MetaDescription)
	assert.Equal(t, "The parliament passed the budget on Tuesday.\n\nOpposition members walked out.", page.Text)
	assert.NotContains(t, page.Text, "Subscribe")
	assert.NotContains(t, page.Text, "Related")
	assert.NotContains(t, page.Text, "tracking")
}

func TestGenericAdapter_FallsBackToParagraphs(t *testing.T) {
	a := NewGenericAdapter()
	doc, err := a.ParseHTML(`<html><body>
<div><p>First paragraph.</p></div>
<footer><p>Footer text</p></footer>
<div class="x"><p>Second <b>bold</b> paragraph.</p></div>
</body></html>`)
	require.NoError(t, err)

	page := a.Extract(doc, "https://blog.example.com/post")
	assert.Equal(t, "First paragraph.\n\nSecond bold paragraph.", page.Text)
}

func TestGenericAdapter_RoleMainWithoutParagraphs(t *testing.T) {
	a := NewGenericAdapter()
	doc, err := a.ParseHTML(`<html><body><div role="main">Plain   body text.</div></body></html>`)
	require.NoError(t, err)

	page := a.Extract(doc, "https://example.com")
	assert.Equal(t, "Plain body text.", page.Text)
}

func TestGenericAdapter_EmptyPage(t *testing.T) {
	a := NewGenericAdapter()
	doc, err := a.ParseHTML(`<html><head><title>Empty</title></head><body><nav>menu</nav></body></html>`)
	require.NoError(t, err)

	page := a.Extract(doc, "https://example.com")
	assert.Equal(t, "Empty", page.Title)
	assert.Empty(t, page.Text)
}

func TestWikipediaAdapter(t *testing.T) {
	a := NewWikipediaAdapter()
	assert.True(t, a.CanHandle("https://en.wikipedia.org/wiki/Go_(programming_language)", "text/html"))
	assert.False(t, a.CanHandle("https://en.wikipedia.org/w/index.php?title=Go", "text/html"))
	assert.False(t, a.CanHandle("https://notwikipedia.org/wiki/Go", "text/html"))

	doc, err := a.ParseHTML(`<html><head><title>Go - Wikipedia</title></head><body>
<h1 id="firstHeading">Go (programming language)</h1>
<div id="mw-content-text"><div class="mw-parser-output">
<table class="infobox"><tr><td><p>Paradigm: concurrent</p></td></tr></table>
<p>Go is a programming language.<sup class="reference">[1]</sup></p>
<div class="navbox"><p>Navigation</p></div>
<p>It was designed at Google.<span class="mw-editsection">[edit]</span></p>
</div></div></body></html>`)
	require.NoError(t, err)

	page := a.Extract(doc, "https://en.wikipedia.org/wiki/Go")
	assert.Equal(t, "Go (programming language)", page.Title)
	assert.Equal(t, "Go is a programming language.\n\nIt was designed at Google.", page.Text)
	assert.False(t, strings.Contains(page.Text, "[1]"))
}

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "wikipedia", r.FindAdapter("https://de.wikipedia.org/wiki/Berlin", "text/html").Name())
	assert.Equal(t, "legal", r.FindAdapter("https://www.legislation.gov.uk/ukpga/2010/15", "text/html").Name())
	assert.Equal(t, "generic", r.FindAdapter("https://www.reuters.com/world/", "text/html").Name())
}

func TestLegalAdapter(t *testing.T) {
	a := NewLegalAdapter()
	assert.True(t, a.CanHandle("https://www.legislation.gov.uk/ukpga/2010/15", "text/html"))
	assert.True(t, a.CanHandle("https://www.law.cornell.edu/uscode/text/18/1030", "text/html"))
	assert.True(t, a.CanHandle("https://example.gov/regulation/42", "text/html"))
	assert.False(t, a.CanHandle("https://www.reuters.com/legal/some-story", "text/html"))
	assert.False(t, a.CanHandle("https://notlegislation.gov.uk.example.com/x", "text/html"))

	doc, err := a.ParseHTML(`<html><head><title>Equality Act 2010</title></head><body>
<nav><li>Home</li></nav>
<main>
<h1>Equality Act 2010</h1>
<ol>
  <li>A person must not discriminate against another.</li>
  <li><p>This section applies to employers.</p></li>
</ol>
<dl><dt>employer</dt><dd>a person who employs another.</dd></dl>
<script>ignored()</script>
</main></body></html>`)
	require.NoError(t, err)

	page := a.Extract(doc, "https://www.legislation.gov.uk/ukpga/2010/15")
	assert.Equal(t, "Equality Act 2010", page.Title)
	assert.Equal(t, "A person must not discriminate against another.\n\n"+
		"This section applies to employers.\n\n"+
		"employer\n\n"+
		"a person who employs another.", page.Text)
	assert.NotContains(t, page.Text, "Home")
}
