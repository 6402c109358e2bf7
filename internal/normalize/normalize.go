// Package normalize flattens crawled entities into the fixed-width rows of
// the movies and casts tables.
package normalize

import (
	"github.com/JakeFAU/supermovie/internal/crawler"
)

// Sentinel fills positional slots an entity has no value for.
const Sentinel = "-"

// Slot widths of the two tables.
const (
	StarSlots = 3
	FilmSlots = 4
)

// Table names.
const (
	MoviesTable = "movies"
	CastsTable  = "casts"
)

// MovieColumns lists the data columns of the movies table in insert order.
var MovieColumns = []string{
	"name", "director", "star1", "star2", "star3", "releasing_date",
	"score", "classification", "description", "poster_url",
}

// CastColumns lists the data columns of the casts table in insert order.
var CastColumns = []string{
	"name", "position", "bio",
	"film1", "score1", "date1",
	"film2", "score2", "date2",
	"film3", "score3", "date3",
	"film4", "score4", "date4",
	"photo",
}

// Fixed returns exactly k items: the first k of items, padded with pad when
// there are fewer.
func Fixed[T any](items []T, k int, pad T) []T {
	if k <= 0 {
		return []T{}
	}
	out := make([]T, k)
	n := copy(out, items)
	for i := n; i < k; i++ {
		out[i] = pad
	}
	return out
}

// MovieRow is one row of the movies table.
type MovieRow struct {
	Name           *string
	Director       *string
	Stars          []string
	ReleasingDate  *string
	Score          string
	Classification *string
	Description    *string
	PosterURL      *string
}

// Values returns the row in MovieColumns order. Nil fields become NULL.
func (r MovieRow) Values() []any {
	values := make([]any, 0, len(MovieColumns))
	values = append(values, nullable(r.Name), nullable(r.Director))
	for _, star := range Fixed(r.Stars, StarSlots, Sentinel) {
		values = append(values, star)
	}
	return append(values,
		nullable(r.ReleasingDate),
		r.Score,
		nullable(r.Classification),
		nullable(r.Description),
		nullable(r.PosterURL),
	)
}

// FilmScore is one film/score/date triple of a casts row.
type FilmScore struct {
	Film  string
	Score string
	Date  *string
}

var sentinelFilm = FilmScore{Film: Sentinel, Score: Sentinel, Date: ptr(Sentinel)}

// CastRow is one row of the casts table.
type CastRow struct {
	Name     *string
	Position crawler.Position
	Bio      *string
	Films    []FilmScore
	Photo    *string
}

// Values returns the row in CastColumns order. Nil fields become NULL.
func (r CastRow) Values() []any {
	values := make([]any, 0, len(CastColumns))
	values = append(values, nullable(r.Name), string(r.Position), nullable(r.Bio))
	for _, film := range Fixed(r.Films, FilmSlots, sentinelFilm) {
		values = append(values, film.Film, film.Score, nullable(film.Date))
	}
	return append(values, nullable(r.Photo))
}

// Movies maps movies to rows, preserving order.
func Movies(movies []crawler.Movie) []MovieRow {
	rows := make([]MovieRow, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, MovieRow{
			Name:           m.Name,
			Director:       m.Director,
			Stars:          Fixed(m.Stars, StarSlots, Sentinel),
			ReleasingDate:  m.ReleasingDate,
			Score:          m.Score,
			Classification: m.Classification,
			Description:    m.Description,
			PosterURL:      m.PosterURL,
		})
	}
	return rows
}

// Casts maps cast members to rows, preserving order. The film triples come
// from the member's resolved scores in known-for order.
func Casts(casts []crawler.CastMember) []CastRow {
	rows := make([]CastRow, 0, len(casts))
	for _, c := range casts {
		var films []FilmScore
		for _, entry := range c.Scores.Entries() {
			films = append(films, FilmScore{
				Film:  entry.Key,
				Score: entry.Value.Score,
				Date:  entry.Value.ReleaseDate,
			})
		}
		rows = append(rows, CastRow{
			Name:     c.Name,
			Position: c.Position,
			Bio:      c.Bio,
			Films:    Fixed(films, FilmSlots, sentinelFilm),
			Photo:    c.Photo,
		})
	}
	return rows
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func ptr(s string) *string {
	return &s
}
