// CLAUDE:SUMMARY Polls rendered page text for ward/alderperson markers until seen or the results deadline passes.
package waiter

import (
	"context"
	"strings"
	"time"
)

// Markers are the lowercase words whose presence means results rendered.
var Markers = []string{"ward", "alderman", "alderwoman"}

// TextReader reads the page's visible text. browser.Page satisfies it.
type TextReader interface {
	VisibleText(ctx context.Context) (string, error)
}

// Await polls r every poll interval for up to timeout and reports whether a
// marker appeared. A read error counts as "not yet". Await never fails: a
// false result only means extraction will run on whatever rendered.
func Await(ctx context.Context, r TextReader, timeout, poll time.Duration) bool {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if text, err := r.VisibleText(ctx); err == nil && HasMarker(text) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// HasMarker reports whether text contains any marker, case-insensitively.
func HasMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range Markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
