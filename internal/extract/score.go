package extract

import (
	"github.com/JakeFAU/supermovie/internal/crawler"
)

// Score extracts the rating and release date of a known-for film page. The
// release date is kept only when it is a plain "DD Month YYYY" date.
func (e *Extractor) Score(body []byte) (crawler.ScoreRecord, error) {
	doc, err := parse(body)
	if err != nil {
		return crawler.ScoreRecord{}, err
	}
	root := doc.Selection
	rec := crawler.ScoreRecord{Score: score(root)}
	if wrapper, ok := first(root, "div.title_wrapper"); ok {
		if _, release := subtext(wrapper); release != nil && ValidReleaseDate(*release) {
			rec.ReleaseDate = release
		}
	}
	return rec, nil
}
