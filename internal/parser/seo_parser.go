// Package parser extracts SEO-relevant signals from HTML documents.
// The extracted signals feed the crawler's page scoring.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Signals contains the SEO-relevant data extracted from a page.
type Signals struct {
	Title            string
	MetaDescription  string
	MetaRobots       string
	CanonicalURL     string
	Lang             string // lang attribute of the html element
	OGTitle          string
	OGDescription    string
	OGImage          string
	H1Count          int
	FirstH1          string
	ImageCount       int
	ImagesMissingAlt int
	WordCount        int
	HreflangLocales  []string // Locales advertised through link rel=alternate
}

// SEOParser extracts SEO signals from HTML.
type SEOParser struct {
	baseURL *url.URL
}

// NewSEOParser creates a parser that resolves relative URLs against baseURL.
func NewSEOParser(baseURL string) (*SEOParser, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &SEOParser{baseURL: parsed}, nil
}

// Parse walks the HTML document and collects SEO signals.
func (p *SEOParser) Parse(htmlContent []byte) (*Signals, error) {
	doc, err := html.Parse(strings.NewReader(string(htmlContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	signals := &Signals{}
	p.traverse(doc, signals, false)
	return signals, nil
}

// traverse recursively walks the HTML tree. inBody tracks whether the
// current subtree contributes to the visible word count.
func (p *SEOParser) traverse(n *html.Node, s *Signals, inBody bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html":
			s.Lang = attr(n, "lang")
		case "title":
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				s.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "meta":
			p.parseMeta(n, s)
		case "link":
			p.parseLink(n, s)
		case "h1":
			s.H1Count++
			if s.FirstH1 == "" {
				s.FirstH1 = strings.TrimSpace(extractText(n))
			}
		case "img":
			s.ImageCount++
			if strings.TrimSpace(attr(n, "alt")) == "" {
				s.ImagesMissingAlt++
			}
		case "body":
			inBody = true
		case "script", "style", "noscript":
			// Invisible content never counts toward the word count
			return
		}
	}

	if inBody && n.Type == html.TextNode {
		s.WordCount += len(strings.Fields(n.Data))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.traverse(c, s, inBody)
	}
}

// parseMeta extracts description, robots and Open Graph metadata.
func (p *SEOParser) parseMeta(n *html.Node, s *Signals) {
	name := strings.ToLower(attr(n, "name"))
	property := strings.ToLower(attr(n, "property"))
	content := attr(n, "content")

	switch name {
	case "description":
		s.MetaDescription = content
	case "robots":
		s.MetaRobots = content
	}

	switch property {
	case "og:title":
		s.OGTitle = content
	case "og:description":
		s.OGDescription = content
	case "og:image":
		s.OGImage = content
	}
}

// parseLink extracts the canonical URL and hreflang alternates.
func (p *SEOParser) parseLink(n *html.Node, s *Signals) {
	rel := strings.ToLower(attr(n, "rel"))
	href := attr(n, "href")
	if href == "" {
		return
	}

	switch rel {
	case "canonical":
		if abs, err := p.resolveURL(href); err == nil {
			s.CanonicalURL = abs
		}
	case "alternate":
		if lang := attr(n, "hreflang"); lang != "" {
			s.HreflangLocales = append(s.HreflangLocales, strings.ToLower(lang))
		}
	}
}

// resolveURL converts relative URLs to absolute URLs.
func (p *SEOParser) resolveURL(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return p.baseURL.ResolveReference(u).String(), nil
}

// extractText recursively extracts text content from a node.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// attr returns the value of the named attribute, or "" when absent.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
