package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/supermovie/internal/crawler"
)

const testBase = "https://www.imdb.com"

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(testBase)
	require.NoError(t, err)
	return e
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{name: "absolute", base: "https://www.imdb.com"},
		{name: "trailing slash", base: "https://www.imdb.com/"},
		{name: "relative", base: "/calendar", wantErr: true},
		{name: "empty", base: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t)
	assert.Equal(t, "https://www.imdb.com/name/nm2125482/", e.Resolve("/name/nm2125482/"))
	assert.Equal(t, "https://www.imdb.com/title/tt9770150/?ref_=rlm", e.Resolve("/title/tt9770150/?ref_=rlm"))
	assert.Equal(t, "https://example.org/x", e.Resolve("https://example.org/x"))
}

func TestCalendar(t *testing.T) {
	t.Parallel()

	entries, err := newTestExtractor(t).Calendar(fixture(t, "calendar.html"))
	require.NoError(t, err)
	assert.Equal(t, []crawler.CalendarEntry{
		{Title: "Nomadland", Href: "/title/tt9770150/?ref_=rlm"},
		{Title: "Boogie", Href: "/title/tt0000002/?ref_=rlm"},
		{Title: "Cherry", Href: "https://www.imdb.com/title/tt0000003/?ref_=rlm"},
	}, entries)
}

func TestCalendarWithoutMainIsEmpty(t *testing.T) {
	t.Parallel()

	entries, err := newTestExtractor(t).Calendar([]byte(`<html><body><ul><li><a href="/x">X</a></li></ul></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMovieThreeCreditBlocks(t *testing.T) {
	t.Parallel()

	rec, err := newTestExtractor(t).Movie(fixture(t, "movie_three_blocks.html"))
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Nomadland", *rec.Name)
	require.NotNil(t, rec.Classification)
	assert.Equal(t, "R", *rec.Classification)
	require.NotNil(t, rec.ReleasingDate)
	assert.Equal(t, "19 February 2021", *rec.ReleasingDate)
	assert.Equal(t, "7.4", rec.Score)

	require.NotNil(t, rec.Director)
	assert.Equal(t, "Chloé Zhao", *rec.Director)
	require.NotNil(t, rec.DirectorURL)
	assert.Equal(t, "https://www.imdb.com/name/nm2125482/", *rec.DirectorURL)

	assert.Equal(t, []string{"Frances McDormand", "David Strathairn", "Linda May"}, rec.Stars)
	assert.Equal(t, []string{"Frances McDormand", "David Strathairn", "Linda May"}, rec.StarURLs.Keys())
	url, ok := rec.StarURLs.Get("David Strathairn")
	require.True(t, ok)
	assert.Equal(t, "https://www.imdb.com/name/nm0001017/", url)

	require.NotNil(t, rec.Description)
	assert.Equal(t, "A woman in her sixties embarks on a journey through the western United States.", *rec.Description)
	require.NotNil(t, rec.PosterURL)
	assert.Equal(t, "https://m.media-amazon.com/images/M/nomadland.jpg", *rec.PosterURL)
}

func TestMovieTwoCreditBlocksUsesSecond(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div class="credit_summary_item"><h4>Director:</h4><a href="/name/nm1/">Some Director</a></div>
<div class="credit_summary_item"><h4>Stars:</h4><a href="/name/nm2/">Star One</a>, <a href="/name/nm3/">Star Two</a> | <a href="/title/tt1/fullcredits">See full cast &amp; crew</a></div>
</body></html>`
	rec, err := newTestExtractor(t).Movie([]byte(page))
	require.NoError(t, err)

	require.NotNil(t, rec.Director)
	assert.Equal(t, "Some Director", *rec.Director)
	assert.Equal(t, []string{"Star One", "Star Two"}, rec.Stars)
	assert.Equal(t, []string{"Star One", "Star Two"}, rec.StarURLs.Keys())
}

func TestMovieSingleCreditBlockHasNoStars(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="credit_summary_item"><a href="/name/nm1/">Solo</a></div></body></html>`
	rec, err := newTestExtractor(t).Movie([]byte(page))
	require.NoError(t, err)

	require.NotNil(t, rec.Director)
	assert.Equal(t, "Solo", *rec.Director)
	assert.Empty(t, rec.Stars)
	assert.Equal(t, 0, rec.StarURLs.Len())
}

func TestMovieMissingMarkupDegradesToNil(t *testing.T) {
	t.Parallel()

	rec, err := newTestExtractor(t).Movie([]byte(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)

	assert.Nil(t, rec.Name)
	assert.Nil(t, rec.Classification)
	assert.Nil(t, rec.ReleasingDate)
	assert.Nil(t, rec.Director)
	assert.Nil(t, rec.DirectorURL)
	assert.Nil(t, rec.Description)
	assert.Nil(t, rec.PosterURL)
	assert.Equal(t, DefaultScore, rec.Score)
	assert.NotNil(t, rec.Stars)
	assert.Empty(t, rec.Stars)
}

func TestMovieTitleWithoutParenKeepsWholeText(t *testing.T) {
	t.Parallel()

	page := `<div class="title_wrapper"><h1> Boogie </h1></div>`
	rec, err := newTestExtractor(t).Movie([]byte(page))
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Boogie", *rec.Name)
	assert.Nil(t, rec.Classification)
	assert.Nil(t, rec.ReleasingDate)
}

func TestCastPrimaryLayout(t *testing.T) {
	t.Parallel()

	rec, err := newTestExtractor(t).Cast(fixture(t, "cast_primary.html"))
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Frances McDormand", *rec.Name)
	require.NotNil(t, rec.Bio)
	assert.Equal(t, "Frances Louise McDormand was born in Chicago.", *rec.Bio)
	require.NotNil(t, rec.Photo)
	assert.Equal(t, "https://m.media-amazon.com/images/M/mcdormand.jpg", *rec.Photo)

	assert.Equal(t, []string{"Fargo", "Three Billboards Outside Ebbing, Missouri", "Nomadland"}, rec.Films.Keys())
	fargo, ok := rec.Films.Get("Fargo")
	require.True(t, ok)
	assert.Equal(t, "https://www.imdb.com/title/tt0116282/", fargo)
}

func TestCastSecondaryLayout(t *testing.T) {
	t.Parallel()

	rec, err := newTestExtractor(t).Cast(fixture(t, "cast_secondary.html"))
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "David Strathairn", *rec.Name)
	assert.Nil(t, rec.Photo, "photo is only read from the primary layout")
	assert.Nil(t, rec.Bio)
	assert.Equal(t, []string{"Good Night, and Good Luck."}, rec.Films.Keys())
}

func TestCastPhotoChainMissingLevel(t *testing.T) {
	t.Parallel()

	page := `<div id="name-overview-widget" class="name-overview-widget"><table><tbody><tr><td>
<h1><span>No Photo</span></h1>
<div class="poster-hero-container"><img src="https://example.org/wrong.jpg"></div>
</td></tr></tbody></table></div>`
	rec, err := newTestExtractor(t).Cast([]byte(page))
	require.NoError(t, err)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "No Photo", *rec.Name)
	assert.Nil(t, rec.Photo)
}

func TestCastShortBioBecomesEmpty(t *testing.T) {
	t.Parallel()

	rec, err := newTestExtractor(t).Cast([]byte(`<div class="inline">  short  </div>`))
	require.NoError(t, err)

	require.NotNil(t, rec.Bio)
	assert.Equal(t, "", *rec.Bio)
	assert.Nil(t, rec.Name)
	assert.Equal(t, 0, rec.Films.Len())
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page        string
		wantScore   string
		wantRelease *string
	}{
		{
			name: "rated with full date",
			page: `<div class="title_wrapper"><h1>Fargo (1996)</h1><div class="subtext"><a href="/g">Crime</a><a href="/r">05 April 1996 (USA)</a></div></div>
<div class="ratingValue"><strong><span>8.1</span></strong><span>/10</span></div>`,
			wantScore:   "8.1",
			wantRelease: ptr("05 April 1996"),
		},
		{
			name:      "series year is not a date",
			page:      `<div class="title_wrapper"><h1>Show</h1><div class="subtext"><a href="/g">Drama</a><a href="/r">TV Series (2019– )</a></div></div>`,
			wantScore: DefaultScore,
		},
		{
			name:      "single digit day is rejected",
			page:      `<div class="title_wrapper"><div class="subtext"><a href="/r">5 April 1996 (USA)</a></div></div>`,
			wantScore: DefaultScore,
		},
		{
			name:      "no wrapper",
			page:      `<html><body></body></html>`,
			wantScore: DefaultScore,
		},
	}
	e := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := e.Score([]byte(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, rec.Score)
			assert.Equal(t, tt.wantRelease, rec.ReleaseDate)
		})
	}
}

func TestValidReleaseDate(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidReleaseDate("05 March 2021"))
	assert.True(t, ValidReleaseDate("19 February 2021"))
	assert.False(t, ValidReleaseDate("5 March 2021"))
	assert.False(t, ValidReleaseDate("March 2021"))
	assert.False(t, ValidReleaseDate("2021"))
	assert.False(t, ValidReleaseDate("05 March 2021 (USA)"))
	assert.False(t, ValidReleaseDate("-"))
}

func TestSortableDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "05 March 2021", want: "2021/03/05", wantOK: true},
		{in: "19 February 2021", want: "2021/02/19", wantOK: true},
		{in: "31 December 1999", want: "1999/12/31", wantOK: true},
		{in: "-"},
		{in: ""},
		{in: "05 Smarch 2021"},
		{in: "31 February 2021"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := SortableDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
