// CLAUDE:SUMMARY Browser-agnostic Page/Session contracts and the session guard that closes every session exactly once.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUpstreamUnavailable marks faults of the browser or the remote site that
// are not one of the more specific lookup failures.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Query is one structural probe: a CSS selector, optionally narrowed to
// elements whose text matches a JS regex such as "/Search|Find/".
type Query struct {
	Selector string
	Text     string
}

func (q Query) String() string {
	if q.Text == "" {
		return q.Selector
	}
	return q.Selector + " " + q.Text
}

// Page is the subset of page operations a lookup needs. Every blocking call
// honours ctx.
type Page interface {
	// Navigate loads url and returns once the network is idle.
	Navigate(ctx context.Context, url string) error
	// Has reports whether at least one element matches q. It never waits.
	Has(ctx context.Context, q Query) (bool, error)
	// WaitAny blocks until one of qs matches or ctx is done.
	WaitAny(ctx context.Context, qs []Query) error
	// Fill selects all text of the first element matching q and replaces it.
	Fill(ctx context.Context, q Query, text string) error
	// Click clicks the first element matching q.
	Click(ctx context.Context, q Query) error
	// PressEnter sends an Enter key press to the focused element.
	PressEnter(ctx context.Context) error
	// VisibleText returns the rendered text of the document body.
	VisibleText(ctx context.Context) (string, error)
	// HTML returns the serialized DOM.
	HTML(ctx context.Context) (string, error)
}

// Session is one exclusively owned browser instance with one open page.
type Session interface {
	Page
	ID() string
	Close() error
}

// Opener creates sessions. Implementations must be safe for concurrent use;
// every call returns an independent session.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// WithSession opens a session, runs fn with it and closes it exactly once
// on every exit path: normal return, returned error, expired ctx or panic.
// Close errors are logged and never replace fn's outcome.
func WithSession(ctx context.Context, opener Opener, logger *slog.Logger, fn func(context.Context, Session) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	sess, err := opener.Open(ctx)
	if err != nil {
		return fmt.Errorf("browser: open session: %w: %w", ErrUpstreamUnavailable, err)
	}

	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("browser: session close failed", "session", sess.ID(), "error", cerr)
			return
		}
		logger.Debug("browser: session closed", "session", sess.ID())
	}()

	return fn(ctx, sess)
}
