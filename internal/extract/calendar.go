package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/supermovie/internal/crawler"
)

// Calendar returns the (title, href) pairs listed under the calendar's main
// container. Every list nested under the container is walked in document
// order; duplicates are kept.
func (e *Extractor) Calendar(body []byte) ([]crawler.CalendarEntry, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}
	main := doc.Find("div#main").First()
	var entries []crawler.CalendarEntry
	main.Find("ul").Each(func(_ int, list *goquery.Selection) {
		list.Find("li").Each(func(_ int, item *goquery.Selection) {
			link := item.Find("a").First()
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			entries = append(entries, crawler.CalendarEntry{
				Title: strings.TrimSpace(link.Text()),
				Href:  href,
			})
		})
	})
	return entries, nil
}
