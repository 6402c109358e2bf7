package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/ordered"
)

// fullCreditsMarker identifies the trailing "See full cast & crew" link of a
// credit block, which is not a person.
const fullCreditsMarker = "fullcredits"

// Movie extracts a movie detail page.
func (e *Extractor) Movie(body []byte) (crawler.MovieRecord, error) {
	doc, err := parse(body)
	if err != nil {
		return crawler.MovieRecord{}, err
	}
	root := doc.Selection

	rec := crawler.MovieRecord{
		Score:    score(root),
		Stars:    []string{},
		StarURLs: ordered.New[string](),
	}

	if wrapper, ok := first(root, "div.title_wrapper"); ok {
		if h1, ok := first(wrapper, "h1"); ok {
			rec.Name = ptr(beforeParen(h1.Text()))
		}
		rec.Classification, rec.ReleasingDate = subtext(wrapper)
	}

	blocks := root.Find("div.credit_summary_item")
	if blocks.Length() > 0 {
		if link := blocks.Eq(0).Find("a").First(); link.Length() > 0 {
			rec.Director = ptr(strings.TrimSpace(link.Text()))
			if href, ok := link.Attr("href"); ok {
				rec.DirectorURL = ptr(e.Resolve(href))
			}
		}
	}

	if stars := starBlock(blocks); stars != nil {
		stars.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, hasHref := link.Attr("href")
			if hasHref && strings.Contains(href, fullCreditsMarker) {
				return
			}
			name := strings.TrimSpace(link.Text())
			rec.Stars = append(rec.Stars, name)
			if hasHref {
				rec.StarURLs.Set(name, e.Resolve(href))
			}
		})
	}

	if span, ok := first(root, "div.inline.canwrap", "p", "span"); ok {
		rec.Description = ptr(strings.TrimSpace(span.Text()))
	}
	if img, ok := first(root, "div.poster", "img"); ok {
		if src, ok := img.Attr("src"); ok {
			rec.PosterURL = ptr(src)
		}
	}
	return rec, nil
}

// starBlock picks the credit block holding the stars: the third block when
// exactly three are present (director, writers, stars), otherwise the
// second (director, stars).
func starBlock(blocks *goquery.Selection) *goquery.Selection {
	switch n := blocks.Length(); {
	case n == 3:
		return blocks.Eq(2)
	case n >= 2:
		return blocks.Eq(1)
	default:
		return nil
	}
}

// subtext returns the first and last link texts of the title subtext block:
// the classification and the release date. The release date loses any
// parenthesized country suffix.
func subtext(wrapper *goquery.Selection) (*string, *string) {
	block, ok := first(wrapper, "div.subtext")
	if !ok {
		return nil, nil
	}
	links := block.Find("a")
	if links.Length() == 0 {
		return nil, nil
	}
	classification := strings.TrimSpace(links.First().Text())
	release := beforeParen(strings.TrimSpace(links.Last().Text()))
	return ptr(classification), ptr(release)
}

// score reads the rating block ("7.5/10") without its "/10" tail.
func score(root *goquery.Selection) string {
	block, ok := first(root, "div.ratingValue")
	if !ok {
		return DefaultScore
	}
	return dropTail(strings.TrimSpace(block.Text()), 3)
}
