package crawler

import (
	"net/http"
	"time"

	"github.com/JakeFAU/supermovie/internal/ordered"
)

// Position is the role a person was discovered through.
type Position string

// Cast positions stored in the casts table.
const (
	PositionDirector Position = "director"
	PositionStar     Position = "star"
)

// Stage names one step of the dependent crawl.
type Stage string

// Crawl stages, in dependency order.
const (
	StageCalendar Stage = "calendar"
	StageMovie    Stage = "movie"
	StageCast     Stage = "cast"
	StageScore    Stage = "score"
)

// CalendarEntry is one (title, link) pair found on the calendar page.
// Href is the link exactly as it appears in the markup.
type CalendarEntry struct {
	Title string
	Href  string
}

// MovieRecord is the cached shape of a movie detail page. Nil fields were
// missing from the page.
type MovieRecord struct {
	Name           *string              `json:"name"`
	Director       *string              `json:"director"`
	DirectorURL    *string              `json:"director_url"`
	Stars          []string             `json:"stars"`
	StarURLs       *ordered.Map[string] `json:"stars_url_dict"`
	ReleasingDate  *string              `json:"releasing_date"`
	Score          string               `json:"score"`
	Classification *string              `json:"classification"`
	Description    *string              `json:"description"`
	PosterURL      *string              `json:"poster_url"`
}

// CastRecord is the cached shape of a director or star detail page.
type CastRecord struct {
	Name  *string              `json:"name"`
	Bio   *string              `json:"bio"`
	Films *ordered.Map[string] `json:"films"`
	Photo *string              `json:"photo"`
}

// ScoreRecord is the cached score and release date of one film, looked up
// while resolving a person's known-for list.
type ScoreRecord struct {
	Score       string  `json:"score"`
	ReleaseDate *string `json:"release_date"`
}

// Movie is a resolved calendar entry. URL is its identity.
type Movie struct {
	URL string
	MovieRecord
}

// CastMember is one appearance of a person via a movie. The same person
// reached through two movies yields two CastMember values.
type CastMember struct {
	URL      string
	Position Position
	CastRecord
	// Scores maps film title to score, in known-for order.
	Scores *ordered.Map[ScoreRecord]
}

// Result is everything one crawl run produced.
type Result struct {
	Movies []Movie
	Casts  []CastMember
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL   string
	Stage Stage
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
