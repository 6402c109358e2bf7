package crawler

import (
	"context"
	"errors"
	"time"
)

// ErrTransport marks a fetch that never produced a response (DNS, connect,
// timeout). It is not recoverable within a run.
var ErrTransport = errors.New("transport failure")

// Fetcher fetches a URL and returns the body plus metadata. Non-2xx
// responses are returned, not reported as errors.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor turns page bodies into records. Missing markup degrades single
// fields to nil; errors are reserved for bodies that cannot be parsed at all.
type Extractor interface {
	Calendar(body []byte) ([]CalendarEntry, error)
	Movie(body []byte) (MovieRecord, error)
	Cast(body []byte) (CastRecord, error)
	Score(body []byte) (ScoreRecord, error)
	// Resolve turns a link found on a page into an absolute URL.
	Resolve(href string) string
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Publisher announces finished runs to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
