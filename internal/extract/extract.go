// Package extract pulls structured fields out of calendar, movie, and person
// pages. The selectors encode the site's page layout, including the layout
// variants observed in the wild; every missing element degrades a single
// field to nil instead of failing the page.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/supermovie/internal/crawler"
)

// DefaultScore is recorded when a page has no rating block.
const DefaultScore = crawler.DefaultScore

// Extractor implements crawler.Extractor for the movie database's markup.
type Extractor struct {
	base *url.URL
}

// New builds an Extractor that resolves relative links against baseURL.
func New(baseURL string) (*Extractor, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Extractor{base: base}, nil
}

// Resolve turns href into an absolute URL on the configured origin.
func (e *Extractor) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.TrimRight(e.base.String(), "/") + href
	}
	return e.base.ResolveReference(ref).String()
}

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// first walks a chain of selectors, taking the first match at each level,
// and reports false as soon as a level is missing.
func first(sel *goquery.Selection, steps ...string) (*goquery.Selection, bool) {
	cur := sel
	for _, step := range steps {
		cur = cur.Find(step).First()
		if cur.Length() == 0 {
			return nil, false
		}
	}
	return cur, true
}

func ptr(s string) *string {
	return &s
}

// beforeParen returns the text preceding the first "(" with surrounding
// whitespace (including non-breaking spaces) removed.
func beforeParen(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// dropTail removes the last n runes of s, or everything when s is shorter.
func dropTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return ""
	}
	return string(r[:len(r)-n])
}
