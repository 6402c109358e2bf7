package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/ordered"
)

// bioBoilerplate is the length of the " See full bio »" link text that
// trails every bio paragraph.
const bioBoilerplate = 15

// Cast extracts a director or star detail page.
//
// Two layouts exist for the name block. The current one carries both the id
// and the class name-overview-widget and nests the heading in a table cell;
// older pages only carry the id. The photo is only read from the current
// layout.
func (e *Extractor) Cast(body []byte) (crawler.CastRecord, error) {
	doc, err := parse(body)
	if err != nil {
		return crawler.CastRecord{}, err
	}
	root := doc.Selection
	rec := crawler.CastRecord{Films: ordered.New[string]()}

	primary, hasPrimary := first(root, "div#name-overview-widget.name-overview-widget")
	if hasPrimary {
		if span, ok := first(primary, "table", "tbody", "tr", "td", "h1", "span"); ok {
			rec.Name = ptr(strings.TrimSpace(span.Text()))
		}
		if img, ok := first(primary, "div.poster-hero-container", "div.image", "img"); ok {
			if src, ok := img.Attr("src"); ok {
				rec.Photo = ptr(src)
			}
		}
	} else if span, ok := first(root, "div#name-overview-widget", "table", "tbody", "h1", "span"); ok {
		rec.Name = ptr(strings.TrimSpace(span.Text()))
	}

	if bio, ok := first(root, "div.inline"); ok {
		rec.Bio = ptr(dropTail(strings.TrimSpace(bio.Text()), bioBoilerplate))
	}

	root.Find("div.knownfor-title-role").Each(func(_ int, role *goquery.Selection) {
		link := role.Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		rec.Films.Set(strings.TrimSpace(link.Text()), e.Resolve(href))
	})
	return rec, nil
}
