package extract

import (
	"regexp"
	"time"
)

var releaseDatePattern = regexp.MustCompile(`^\d{2}\s[a-zA-Z]+\s\d{4}$`)

const (
	releaseDateLayout  = "02 January 2006"
	sortableDateLayout = "2006/01/02"
)

// ValidReleaseDate reports whether s is a full "DD Month YYYY" date.
func ValidReleaseDate(s string) bool {
	return releaseDatePattern.MatchString(s)
}

// SortableDate converts "05 March 2021" into "2021/03/05". Anything that is
// not a valid release date, including the "-" placeholder, is rejected.
func SortableDate(s string) (string, bool) {
	if !ValidReleaseDate(s) {
		return "", false
	}
	t, err := time.Parse(releaseDateLayout, s)
	if err != nil {
		return "", false
	}
	return t.Format(sortableDateLayout), true
}
